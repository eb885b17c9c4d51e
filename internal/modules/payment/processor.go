// Package payment holds the default PaymentProcessor used outside of
// production: it simulates a gateway call with a small latency so the
// ledger's timeout handling is exercised end to end.
package payment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

type SimulatedProcessor struct {
	latency time.Duration
}

func NewSimulatedProcessor(latency time.Duration) *SimulatedProcessor {
	return &SimulatedProcessor{latency: latency}
}

func (p *SimulatedProcessor) Charge(ctx context.Context, amount float64, method string) error {
	if amount <= 0 {
		return fmt.Errorf("charge amount must be positive, got %.2f", amount)
	}
	if err := p.wait(ctx); err != nil {
		return err
	}
	ref := uuid.NewString()
	log.Printf("payment charged amount=%.2f method=%s ref=%s", amount, method, ref)
	return nil
}

func (p *SimulatedProcessor) Refund(ctx context.Context, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("refund amount must be positive, got %.2f", amount)
	}
	if err := p.wait(ctx); err != nil {
		return err
	}
	ref := uuid.NewString()
	log.Printf("payment refunded amount=%.2f ref=%s", amount, ref)
	return nil
}

func (p *SimulatedProcessor) wait(ctx context.Context) error {
	if p.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
