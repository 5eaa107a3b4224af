package factory

import (
	"time"

	"github.com/mcoot/charsheet/internal/dependencies/mocks"
	"github.com/mcoot/charsheet/internal/rules"
	"github.com/mcoot/charsheet/internal/services/access"
	"github.com/mcoot/charsheet/internal/services/auth"
	"github.com/mcoot/charsheet/internal/storage/memory"
	"github.com/mcoot/charsheet/internal/testutil"
)

// TestGMPin is the GM PIN configured on test apps
const TestGMPin = "4321"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	logger := testutil.NopLogger()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	store := memory.NewWithLogger(mockClock, logger)

	app, err := newWithDependencies(
		store,
		mockClock,
		mockRandom,
		rules.MustDefault(),
		auth.DefaultConfig(),
		access.Config{GMPin: TestGMPin},
		logger,
	)
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
