package bench

import "github.com/stretchr/testify/mock"

type MockProgress struct {
	mock.Mock
}

func (m *MockProgress) SweepStarted(provider string, runs int) {
	m.Called(provider, runs)
}

func (m *MockProgress) RunCompleted(provider string, run Run) {
	m.Called(provider, run)
}

func (m *MockProgress) SweepFinished(provider string) {
	m.Called(provider)
}
