// Package common holds response assertions shared by every feature.
package common

import (
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario context these steps use.
type TestContext interface {
	Status() int
	ExpectStatus(want int) error
	StringField(path string) (string, error)
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.responseFieldShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) responseStatusShouldBe(status int) error {
	return s.tc.ExpectStatus(status)
}

func (s *commonSteps) errorCodeShouldBe(code string) error {
	got, err := s.tc.StringField("error")
	if err != nil {
		return err
	}
	if got != code {
		return fmt.Errorf("expected error code %q, got %q (status %d)", code, got, s.tc.Status())
	}
	return nil
}

func (s *commonSteps) responseFieldShouldBe(field, want string) error {
	got, err := s.tc.StringField(field)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %s=%q, got %q", field, want, got)
	}
	return nil
}
