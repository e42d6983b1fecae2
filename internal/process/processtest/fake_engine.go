// Package processtest provides an in-memory process.Engine stand-in for service tests.
package processtest

import (
	"context"
	"sync"

	"go-hris-engine/internal/process"
	processerrors "go-hris-engine/internal/process/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StartCall struct {
	ProcessType process.ProcessType
	ReferenceID uuid.UUID
	EmployeeID  uuid.UUID
	InitiatorID *uuid.UUID
	Remarks     string
	Metadata    map[string]any
}

type UpdateCall struct {
	InstanceID uuid.UUID
	Status     process.Status
	ActorID    *uuid.UUID
	Remarks    string
	Metadata   map[string]any
}

// FakeEngine records calls and follows the real transition table. Hooks override
// the default behaviour when set. Safe for concurrent use.
type FakeEngine struct {
	mu sync.Mutex

	StartFn        func(call StartCall) (*process.Instance, error)
	UpdateStatusFn func(call UpdateCall) (*process.Instance, error)

	Starts    []StartCall
	Updates   []UpdateCall
	Instances map[uuid.UUID]*process.Instance
	TxBound   int
}

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{Instances: map[uuid.UUID]*process.Instance{}}
}

func (f *FakeEngine) WithTx(*gorm.DB) process.Engine {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.TxBound++
	return f
}

func (f *FakeEngine) Start(_ context.Context, processType process.ProcessType, referenceID, employeeID uuid.UUID, initiatorID *uuid.UUID, remarks string, metadata map[string]any) (*process.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := StartCall{processType, referenceID, employeeID, initiatorID, remarks, metadata}
	f.Starts = append(f.Starts, call)
	if f.StartFn != nil {
		return f.StartFn(call)
	}

	instance := &process.Instance{
		ID:          uuid.New(),
		ProcessType: processType,
		ReferenceID: referenceID,
		EmployeeID:  employeeID,
		Status:      process.StatusInitiated,
		InitiatedBy: initiatorID,
		Version:     1,
	}
	f.Instances[instance.ID] = instance
	return instance, nil
}

func (f *FakeEngine) UpdateStatus(_ context.Context, instanceID uuid.UUID, newStatus process.Status, actorID *uuid.UUID, remarks string, metadata map[string]any) (*process.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := UpdateCall{instanceID, newStatus, actorID, remarks, metadata}
	f.Updates = append(f.Updates, call)
	if f.UpdateStatusFn != nil {
		return f.UpdateStatusFn(call)
	}

	instance, ok := f.Instances[instanceID]
	if !ok {
		instance = &process.Instance{ID: instanceID, ProcessType: inferType(newStatus), Status: process.StatusInitiated, Version: 1}
		f.Instances[instanceID] = instance
	}
	if !process.CanTransition(instance.ProcessType, instance.Status, newStatus) {
		return nil, processerrors.ErrInvalidTransition
	}
	instance.Status = newStatus
	instance.Version++
	return instance, nil
}

func (f *FakeEngine) Get(_ context.Context, instanceID uuid.UUID) (*process.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if instance, ok := f.Instances[instanceID]; ok {
		return instance, nil
	}
	return nil, processerrors.ErrProcessNotFound
}

func (f *FakeEngine) History(context.Context, uuid.UUID) ([]process.HistoryEntry, error) {
	return nil, nil
}

func (f *FakeEngine) Replay(_ context.Context, instanceID uuid.UUID) (process.ReplayResult, error) {
	return process.ReplayResult{InstanceID: instanceID, Consistent: true}, nil
}

func (f *FakeEngine) FindLatestByReference(_ context.Context, processType process.ProcessType, referenceID uuid.UUID) (*process.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *process.Instance
	for _, instance := range f.Instances {
		if instance.ProcessType == processType && instance.ReferenceID == referenceID {
			latest = instance
		}
	}
	if latest == nil {
		return nil, processerrors.ErrProcessNotFound
	}
	return latest, nil
}

func (f *FakeEngine) ListByEmployee(_ context.Context, employeeID uuid.UUID) ([]process.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []process.Instance
	for _, instance := range f.Instances {
		if instance.EmployeeID == employeeID {
			out = append(out, *instance)
		}
	}
	return out, nil
}

// inferType guesses the process type for instances the fake has not seen started.
func inferType(status process.Status) process.ProcessType {
	switch status {
	case process.StatusPayslipGenerated, process.StatusPayslipSent, process.StatusCompleted:
		return process.TypePayroll
	case process.StatusVerified:
		return process.TypeOnboarding
	default:
		return process.TypeLeave
	}
}
