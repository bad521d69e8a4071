package validate

// Check 标识验证流水线中的一个检查步骤。
type Check string

const (
	CheckCredentials   Check = "credentials"
	CheckRoles         Check = "roles"
	CheckListing       Check = "listing"
	CheckPricing       Check = "pricing"
	CheckProfitability Check = "profitability"
	CheckBorrow        Check = "borrow"
)

// StepResult 记录单个检查的结论。
type StepResult struct {
	Check  Check  `json:"check"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// Outcome 按执行顺序记录各检查结论，首个失败即终止。
type Outcome struct {
	Steps []StepResult `json:"steps"`
}

// Passed 判断全部检查是否通过。
func (o Outcome) Passed() bool {
	for _, step := range o.Steps {
		if !step.Passed {
			return false
		}
	}
	return len(o.Steps) > 0
}

// Failure 返回失败的检查及原因；全部通过时 ok 为 false。
func (o Outcome) Failure() (Check, string, bool) {
	for _, step := range o.Steps {
		if !step.Passed {
			return step.Check, step.Reason, true
		}
	}
	return "", "", false
}
