package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "Echo the query parameter",
		Category:    CategoryInformation,
		Params: map[string]ParamSpec{
			"query": {Type: TypeString, Required: true},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return args["query"], nil
		},
	}
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := NewRegistry()

	first := echoTool("echo")
	require.NoError(t, r.Register(first))

	second := echoTool("echo")
	second.Description = "Replacement entry"
	require.NoError(t, r.Register(second))

	got, ok := r.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "Replacement entry", got.Description)
	assert.Len(t, r.Descriptions(), 1)
}

func TestRegistry_FreezeRejectsRegistration(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	r.Freeze()

	err := r.Register(echoTool("late"))
	require.Error(t, err)
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, CodeFrozen, te.Code)

	// Frozen registries still serve reads.
	_, ok := r.Get("echo")
	assert.True(t, ok)
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(context.Background(), "missing", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "Tool not found", res.Error)
	assert.Empty(t, r.History())
}

func TestRegistry_ValidationShortCircuits(t *testing.T) {
	r := NewRegistry()
	invoked := false
	tl := echoTool("echo")
	tl.Handler = func(_ context.Context, args map[string]any) (any, error) {
		invoked = true
		return args["query"], nil
	}
	require.NoError(t, r.Register(tl))

	res := r.Execute(context.Background(), "echo", map[string]any{})
	assert.False(t, res.Success)
	assert.False(t, invoked, "handler must not run on validation failure")
	assert.Empty(t, r.History(), "validation failures leave no history entry")
}

func TestRegistry_CoercesScalarTypes(t *testing.T) {
	tests := []struct {
		name     string
		spec     ParamSpec
		supplied any
		want     any
		wantErr  bool
	}{
		{"int to string", ParamSpec{Type: TypeString, Required: true}, 42, "42", false},
		{"float to string", ParamSpec{Type: TypeString, Required: true}, 4.5, "4.5", false},
		{"json number to int", ParamSpec{Type: TypeInt, Required: true}, float64(7), 7, false},
		{"string to int", ParamSpec{Type: TypeInt, Required: true}, "12", 12, false},
		{"fractional to int", ParamSpec{Type: TypeInt, Required: true}, 1.5, nil, true},
		{"int to float", ParamSpec{Type: TypeFloat, Required: true}, 3, 3.0, false},
		{"string to float", ParamSpec{Type: TypeFloat, Required: true}, "2.5", 2.5, false},
		{"string to bool", ParamSpec{Type: TypeBool, Required: true}, "true", true, false},
		{"garbage to int", ParamSpec{Type: TypeInt, Required: true}, "twelve", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			var got any
			require.NoError(t, r.Register(Tool{
				Name:     "probe",
				Category: CategoryComputation,
				Params:   map[string]ParamSpec{"v": tt.spec},
				Handler: func(_ context.Context, args map[string]any) (any, error) {
					got = args["v"]
					return nil, nil
				},
			}))

			res := r.Execute(context.Background(), "probe", map[string]any{"v": tt.supplied})
			if tt.wantErr {
				assert.False(t, res.Success)
				return
			}
			require.True(t, res.Success, res.Error)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_DefaultsApplied(t *testing.T) {
	r := NewRegistry()
	var seen map[string]any
	require.NoError(t, r.Register(Tool{
		Name:     "probe",
		Category: CategoryInformation,
		Params: map[string]ParamSpec{
			"limit": {Type: TypeInt, Required: false, Default: 5},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			seen = args
			return nil, nil
		},
	}))

	res := r.Execute(context.Background(), "probe", map[string]any{})
	require.True(t, res.Success)
	assert.Equal(t, 5, seen["limit"])
}

func TestRegistry_HandlerErrorRecorded(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tool{
		Name:     "boom",
		Category: CategorySystem,
		Params:   map[string]ParamSpec{},
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			return nil, errors.New("disk on fire")
		},
	}))

	res := r.Execute(context.Background(), "boom", nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "disk on fire")

	hist := r.History()
	require.Len(t, hist, 1)
	assert.False(t, hist[0].Success)
	assert.Equal(t, "boom", hist[0].Tool)
}

func TestRegistry_HandlerPanicContained(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tool{
		Name:     "panicky",
		Category: CategorySystem,
		Params:   map[string]ParamSpec{},
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			panic("unexpected")
		},
	}))

	res := r.Execute(context.Background(), "panicky", nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "panicked")
	require.Len(t, r.History(), 1)
}

func TestRegistry_ConfirmationGate(t *testing.T) {
	declined := false
	r := NewRegistry(func(o *Options) {
		o.Confirm = func(_ context.Context, _ Tool, _ map[string]any) bool {
			declined = true
			return false
		}
	})

	dangerous := echoTool("wipe")
	dangerous.RequiresConfirmation = true
	dangerous.Dangerous = true
	require.NoError(t, r.Register(dangerous))

	res := r.Execute(context.Background(), "wipe", map[string]any{"query": "all"})
	assert.False(t, res.Success)
	assert.True(t, declined)
	assert.Contains(t, res.Error, "declined")
	assert.Empty(t, r.History())
}

func TestRegistry_SuccessHistory(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	res := r.Execute(context.Background(), "echo", map[string]any{"query": 42})
	require.True(t, res.Success)
	assert.Equal(t, "42", res.Result)

	hist := r.History()
	require.Len(t, hist, 1)
	assert.True(t, hist[0].Success)
	assert.Equal(t, "42", hist[0].Params["query"])
	assert.False(t, hist[0].Timestamp.IsZero())
}
