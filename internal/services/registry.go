package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"caixa/internal/core"
	"caixa/internal/repo"
)

var ErrPlanNotFound = errors.New("plan not found")

// PlanRegistry is the load-modify-save surface over the durable master
// plans and card installment specs.
type PlanRegistry struct {
	plans repo.PlanStore
	specs repo.CardSpecStore
}

func NewPlanRegistry(plans repo.PlanStore, specs repo.CardSpecStore) *PlanRegistry {
	return &PlanRegistry{plans: plans, specs: specs}
}

// CreatePlan validates and persists a new master plan, assigning an ID
// when the caller did not.
func (r *PlanRegistry) CreatePlan(ctx context.Context, plan core.MasterPlan) (core.MasterPlan, error) {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if err := plan.Validate(); err != nil {
		return core.MasterPlan{}, err
	}

	plans, err := r.plans.LoadPlans(ctx)
	if err != nil {
		return core.MasterPlan{}, fmt.Errorf("load plans: %w", err)
	}
	plans[plan.ID] = plan
	if err := r.plans.SavePlans(ctx, plans); err != nil {
		return core.MasterPlan{}, fmt.Errorf("save plans: %w", err)
	}
	return plan, nil
}

// DeletePlan removes a master plan from the registry. Instances already
// materialized in months are left to the caller.
func (r *PlanRegistry) DeletePlan(ctx context.Context, id string) error {
	plans, err := r.plans.LoadPlans(ctx)
	if err != nil {
		return fmt.Errorf("load plans: %w", err)
	}
	if _, ok := plans[id]; !ok {
		return ErrPlanNotFound
	}
	delete(plans, id)
	if err := r.plans.SavePlans(ctx, plans); err != nil {
		return fmt.Errorf("save plans: %w", err)
	}
	return nil
}

func (r *PlanRegistry) Plans(ctx context.Context) (map[string]core.MasterPlan, error) {
	return r.plans.LoadPlans(ctx)
}

// CreateCardSpec validates and persists a new card installment spec.
func (r *PlanRegistry) CreateCardSpec(ctx context.Context, spec core.CardSpec) (core.CardSpec, error) {
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	if err := spec.Validate(); err != nil {
		return core.CardSpec{}, err
	}

	specs, err := r.specs.LoadCardSpecs(ctx)
	if err != nil {
		return core.CardSpec{}, fmt.Errorf("load card specs: %w", err)
	}
	specs = append(specs, spec)
	if err := r.specs.SaveCardSpecs(ctx, specs); err != nil {
		return core.CardSpec{}, fmt.Errorf("save card specs: %w", err)
	}
	return spec, nil
}

// DeleteCardSpec removes a card installment spec by ID.
func (r *PlanRegistry) DeleteCardSpec(ctx context.Context, id string) error {
	specs, err := r.specs.LoadCardSpecs(ctx)
	if err != nil {
		return fmt.Errorf("load card specs: %w", err)
	}
	kept := specs[:0]
	found := false
	for _, s := range specs {
		if s.ID == id {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	if !found {
		return ErrPlanNotFound
	}
	if err := r.specs.SaveCardSpecs(ctx, kept); err != nil {
		return fmt.Errorf("save card specs: %w", err)
	}
	return nil
}

func (r *PlanRegistry) CardSpecs(ctx context.Context) ([]core.CardSpec, error) {
	return r.specs.LoadCardSpecs(ctx)
}
