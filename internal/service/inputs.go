package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cryptowise-backend/internal/model"
	"cryptowise-backend/internal/storage"
)

var (
	// ErrNoInputStore is returned when saved inputs are not configured
	ErrNoInputStore = errors.New("saved inputs unavailable")
	// ErrInvalidInput wraps payloads that do not decode into the calculator's request
	ErrInvalidInput = errors.New("invalid input")
)

// InputStore persists raw JSON payloads by key
type InputStore interface {
	Save(ctx context.Context, key string, data []byte, updatedAt time.Time) error
	Load(ctx context.Context, key string) (storage.Record, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) (int64, error)
}

var (
	inputMu    sync.RWMutex
	inputStore InputStore
	now        = time.Now
)

// SetInputStore installs the saved input store; nil disables it
func SetInputStore(s InputStore) {
	inputMu.Lock()
	inputStore = s
	inputMu.Unlock()
}

func getInputStore() (InputStore, error) {
	inputMu.RLock()
	defer inputMu.RUnlock()
	if inputStore == nil {
		return nil, ErrNoInputStore
	}
	return inputStore, nil
}

// storage key -> request type the payload must decode into
var inputShapes = map[string]func() any{
	"cryptowise_pnl_v1":          func() any { return &model.PnLRequest{} },
	"cryptowise_risk_v1":         func() any { return &model.RiskRequest{} },
	"cryptowise_dca_v1":          func() any { return &model.DCARequest{} },
	"cryptowise_moonmath_v1":     func() any { return &model.MoonMathRequest{} },
	"cryptowise_future_value_v1": func() any { return &model.FutureValueRequest{} },
	"cryptowise_decision_v1":     func() any { return &model.DecisionRequest{} },
}

// SaveInput validates data against the calculator's request and stores it
// in canonical form.
func SaveInput(ctx context.Context, calculatorName string, data []byte) (*model.SavedInput, error) {
	key, err := storage.StorageKey(calculatorName)
	if err != nil {
		return nil, err
	}
	store, err := getInputStore()
	if err != nil {
		return nil, err
	}

	canonical, err := canonicalize(key, data)
	if err != nil {
		return nil, err
	}

	updatedAt := now().UTC()
	if err := store.Save(ctx, key, canonical, updatedAt); err != nil {
		return nil, err
	}
	return &model.SavedInput{Calculator: calculatorName, Key: key, Data: canonical, UpdatedAt: updatedAt}, nil
}

// LoadInput returns the saved payload of one calculator
func LoadInput(ctx context.Context, calculatorName string) (*model.SavedInput, error) {
	key, err := storage.StorageKey(calculatorName)
	if err != nil {
		return nil, err
	}
	store, err := getInputStore()
	if err != nil {
		return nil, err
	}

	rec, err := store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return &model.SavedInput{Calculator: calculatorName, Key: key, Data: rec.Data, UpdatedAt: rec.UpdatedAt}, nil
}

// DeleteInput resets one calculator to its defaults
func DeleteInput(ctx context.Context, calculatorName string) error {
	key, err := storage.StorageKey(calculatorName)
	if err != nil {
		return err
	}
	store, err := getInputStore()
	if err != nil {
		return err
	}
	return store.Delete(ctx, key)
}

// ClearInputs removes every saved input
func ClearInputs(ctx context.Context) (*model.ClearInputsResponse, error) {
	store, err := getInputStore()
	if err != nil {
		return nil, err
	}
	n, err := store.Clear(ctx)
	if err != nil {
		return nil, err
	}
	return &model.ClearInputsResponse{Removed: n}, nil
}

func canonicalize(key string, data []byte) ([]byte, error) {
	shape, ok := inputShapes[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrUnknownKey, key)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidInput)
	}

	v := shape()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrInvalidInput)
	}

	return json.Marshal(v)
}
