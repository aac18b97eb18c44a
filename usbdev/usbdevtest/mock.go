package usbdevtest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/arloliu/go-mbim/usbdev"
)

// MockFunctionControl is a testify mock implementing usbdev.FunctionControl.
type MockFunctionControl struct {
	mock.Mock
}

var _ usbdev.FunctionControl = (*MockFunctionControl)(nil)

func NewMockFunctionControl() *MockFunctionControl {
	return &MockFunctionControl{}
}

func (m *MockFunctionControl) ResetFunction(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockFunctionControl) GetNtbParameters(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	data, _ := args.Get(0).([]byte)

	return data, args.Error(1)
}

func (m *MockFunctionControl) SetNtbFormat(ctx context.Context, format usbdev.NtbFormat) error {
	args := m.Called(ctx, format)
	return args.Error(0)
}

func (m *MockFunctionControl) SetNtbInputSize(ctx context.Context, size uint32) error {
	args := m.Called(ctx, size)
	return args.Error(0)
}

func (m *MockFunctionControl) SetMaxDatagramSize(ctx context.Context, size uint16) error {
	args := m.Called(ctx, size)
	return args.Error(0)
}

func (m *MockFunctionControl) SetInterface(ctx context.Context, iface uint8, altSetting uint8) error {
	args := m.Called(ctx, iface, altSetting)
	return args.Error(0)
}

// MethodNames returns the names of the methods called so far, in call order.
func (m *MockFunctionControl) MethodNames() []string {
	names := make([]string, 0, len(m.Calls))
	for _, call := range m.Calls {
		names = append(names, call.Method)
	}

	return names
}
