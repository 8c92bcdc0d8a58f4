package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kairosci/ai-crm/internal/store"
)

func newCRMRegistry(t *testing.T) *Registry {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "crm.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	reg := NewRegistry()
	RegisterCRM(reg, s)
	return reg
}

func TestCreateContactToolEndToEnd(t *testing.T) {
	reg := newCRMRegistry(t)
	ctx := context.Background()

	obs, err := reg.Invoke(ctx, "create_contact",
		`{"first_name":"John","last_name":"Doe","email":"john@example.com"}`)
	require.NoError(t, err)
	assert.Contains(t, obs, "Contact created successfully with ID 1")
	assert.Contains(t, obs, "John Doe")
	assert.Contains(t, obs, "john@example.com")

	listing, err := reg.Invoke(ctx, "get_contacts", "all")
	require.NoError(t, err)
	assert.Contains(t, listing, "ID 1: John Doe (john@example.com)")
}

func TestCreateContactToolMalformedInput(t *testing.T) {
	reg := newCRMRegistry(t)

	obs, err := reg.Invoke(context.Background(), "create_contact", "not json at all")
	require.NoError(t, err, "decode failures must surface as observation text, not errors")
	assert.True(t, strings.HasPrefix(obs, "Error creating contact:"), "got %q", obs)
}

func TestCreateContactToolValidationFailure(t *testing.T) {
	reg := newCRMRegistry(t)

	obs, err := reg.Invoke(context.Background(), "create_contact",
		`{"first_name":"John","last_name":"Doe","email":"nope"}`)
	require.NoError(t, err)
	assert.Contains(t, obs, "email")
}

func TestGetContactToolNotFound(t *testing.T) {
	reg := newCRMRegistry(t)

	obs, err := reg.Invoke(context.Background(), "get_contact", "42")
	require.NoError(t, err)
	assert.Equal(t, "Contact with ID 42 not found.", obs)
}

func TestGetContactToolBadID(t *testing.T) {
	reg := newCRMRegistry(t)

	obs, err := reg.Invoke(context.Background(), "get_contact", "the first one")
	require.NoError(t, err)
	assert.Contains(t, obs, "expected a numeric ID")
}

func TestToolInputFenceStripping(t *testing.T) {
	reg := newCRMRegistry(t)

	obs, err := reg.Invoke(context.Background(), "create_pipeline",
		"```json\n{\"name\":\"Sales Pipeline\"}\n```")
	require.NoError(t, err)
	assert.Contains(t, obs, "Pipeline created successfully with ID 1: Sales Pipeline")
}

func TestCompleteTaskTool(t *testing.T) {
	reg := newCRMRegistry(t)
	ctx := context.Background()

	obs, err := reg.Invoke(ctx, "create_task",
		`{"title":"Follow up call","contact_id":1,"priority":"high"}`)
	require.NoError(t, err)
	assert.Contains(t, obs, "Task created successfully with ID 1")
	assert.Contains(t, obs, "Priority: high")

	obs, err = reg.Invoke(ctx, "complete_task", "1")
	require.NoError(t, err)
	assert.Contains(t, obs, "Task 1 marked as completed")

	listing, err := reg.Invoke(ctx, "get_tasks", "")
	require.NoError(t, err)
	assert.Contains(t, listing, "Status: completed")
}

func TestCreateDealToolObservation(t *testing.T) {
	reg := newCRMRegistry(t)

	obs, err := reg.Invoke(context.Background(), "create_deal",
		`{"title":"Enterprise Deal","value":50000,"pipeline_id":1,"contact_id":1}`)
	require.NoError(t, err)
	assert.Contains(t, obs, "Deal created successfully with ID 1")
	assert.Contains(t, obs, "$50000")
	assert.Contains(t, obs, "Status: lead")
}

func TestEmptyListObservations(t *testing.T) {
	reg := newCRMRegistry(t)
	ctx := context.Background()

	for tool, want := range map[string]string{
		"get_contacts":  "No contacts found.",
		"get_pipelines": "No pipelines found.",
		"get_deals":     "No deals found.",
		"get_tasks":     "No tasks found.",
	} {
		obs, err := reg.Invoke(ctx, tool, "all")
		require.NoError(t, err)
		assert.Equal(t, want, obs)
	}
}
