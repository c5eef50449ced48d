package tick_test

import (
	"reflect"

	"go.uber.org/mock/gomock"
)

// MockTickable is a hand-authored stand-in for what `mockgen
// -source=internal/capability/capability.go` would generate for
// capability.Tickable; mockgen is not run as part of this build, so the
// recorder/EXPECT() shape is written out directly.
type MockTickable struct {
	ctrl     *gomock.Controller
	recorder *MockTickableMockRecorder
}

type MockTickableMockRecorder struct {
	mock *MockTickable
}

func NewMockTickable(ctrl *gomock.Controller) *MockTickable {
	m := &MockTickable{ctrl: ctrl}
	m.recorder = &MockTickableMockRecorder{m}
	return m
}

func (m *MockTickable) EXPECT() *MockTickableMockRecorder {
	return m.recorder
}

func (m *MockTickable) Tick(deltaTime float64) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Tick", deltaTime)
}

func (r *MockTickableMockRecorder) Tick(deltaTime any) *gomock.Call {
	r.mock.ctrl.T.Helper()
	return r.mock.ctrl.RecordCallWithMethodType(r.mock, "Tick", reflect.TypeOf((*MockTickable)(nil).Tick), deltaTime)
}

// MockFixedTickable is the same shape for capability.FixedTickable.
type MockFixedTickable struct {
	ctrl     *gomock.Controller
	recorder *MockFixedTickableMockRecorder
}

type MockFixedTickableMockRecorder struct {
	mock *MockFixedTickable
}

func NewMockFixedTickable(ctrl *gomock.Controller) *MockFixedTickable {
	m := &MockFixedTickable{ctrl: ctrl}
	m.recorder = &MockFixedTickableMockRecorder{m}
	return m
}

func (m *MockFixedTickable) EXPECT() *MockFixedTickableMockRecorder {
	return m.recorder
}

func (m *MockFixedTickable) FixedTick(deltaTime float64) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "FixedTick", deltaTime)
}

func (r *MockFixedTickableMockRecorder) FixedTick(deltaTime any) *gomock.Call {
	r.mock.ctrl.T.Helper()
	return r.mock.ctrl.RecordCallWithMethodType(r.mock, "FixedTick", reflect.TypeOf((*MockFixedTickable)(nil).FixedTick), deltaTime)
}
