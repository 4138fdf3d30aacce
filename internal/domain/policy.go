package domain

// CanAccessStep decides whether a step may be entered given the current state.
//
// The payment rule deliberately requires payment info to already be present.
// That matches the behavior of the storefront this flow replaces; buyers who
// created an order but have not paid re-enter the payment step through the
// continuing-payment bypass in DecideStepEntry, not through this rule.
func CanAccessStep(s *CheckoutState, step Step) bool {
	switch step {
	case StepAddress:
		return true
	case StepReview:
		return s.HasShippingAddress()
	case StepPayment:
		return s.HasShippingAddress() && s.HasPaymentInfo()
	default:
		return false
	}
}

// Decision is the outcome of a step-entry check. Exactly one of Allowed,
// RedirectTo, or RedirectToCart describes what the caller should do; the
// policy never performs navigation itself.
type Decision struct {
	Allowed        bool
	RedirectTo     Step
	RedirectToCart bool
}

// Allow is the decision that permits entry.
func Allow() Decision {
	return Decision{Allowed: true}
}

// RedirectToStep is the decision that sends the buyer to an earlier step.
func RedirectToStep(step Step) Decision {
	return Decision{RedirectTo: step}
}

// RedirectCart is the decision that sends the buyer back to the cart view.
func RedirectCart() Decision {
	return Decision{RedirectToCart: true}
}

// DecideStepEntry applies the step access policy to a target step.
//
// externalOrderID carries a "continuing payment" order reference: a buyer
// returning to pay for an order they already created. Its presence bypasses
// the policy for the payment step, since the order's existence is itself
// sufficient authorization.
func DecideStepEntry(s *CheckoutState, step Step, externalOrderID string) Decision {
	if externalOrderID != "" && step == StepPayment {
		return Allow()
	}

	if !CanAccessStep(s, step) {
		switch step {
		case StepPayment, StepReview:
			// Nearest satisfiable earlier step.
			return RedirectToStep(StepAddress)
		default:
			return RedirectCart()
		}
	}

	return Allow()
}
