package order

import (
	"pizzeria/internal/service/courier"
	"pizzeria/internal/service/kitchen"
	"pizzeria/internal/service/payment"
)

// Step names, in pipeline order.
const (
	StepPayment  = "payment"
	StepKitchen  = "kitchen"
	StepDelivery = "delivery"
)

// Pipeline returns the pizzeria's steps: payment, kitchen, delivery.
func Pipeline(desk *payment.Desk, k *kitchen.Kitchen, fleet *courier.Fleet) []Step {
	return []Step{
		{Name: StepPayment, Run: desk.Process},
		{Name: StepKitchen, Run: k.Prepare},
		{Name: StepDelivery, Run: fleet.Deliver},
	}
}
