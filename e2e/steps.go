package e2e

import (
	"github.com/cucumber/godog"

	"artpriv/e2e/steps/common"
	"artpriv/e2e/steps/onboarding"
)

// RegisterSteps registers every step package against tc.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	onboarding.RegisterSteps(ctx, tc)
}
