package agentsrv

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/Abraxas-365/superagent/pkg/agent"
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAgents struct {
	rows    map[string]agent.Agent
	deleted []string
}

func (m *memAgents) Create(_ context.Context, a agent.Agent) error {
	m.rows[a.ID] = a
	return nil
}

func (m *memAgents) FindByID(_ context.Context, id string) (*agent.Agent, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, agent.NotFound(id)
	}
	return &a, nil
}

func (m *memAgents) ListByUser(_ context.Context, userID kernel.UserID) ([]*agent.Agent, error) {
	var out []*agent.Agent
	for _, a := range m.rows {
		if a.UserID == userID {
			out = append(out, &a)
		}
	}
	slices.SortFunc(out, func(a, b *agent.Agent) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *memAgents) Update(_ context.Context, id string, columns map[string]any) error {
	a, ok := m.rows[id]
	if !ok {
		return agent.NotFound(id)
	}
	if v, ok := columns["name"].(string); ok {
		a.Name = v
	}
	if v, ok := columns["has_memory"].(bool); ok {
		a.HasMemory = v
	}
	m.rows[id] = a
	return nil
}

func (m *memAgents) Delete(_ context.Context, id string) error {
	delete(m.rows, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type memPrompts struct {
	rows map[string]agent.Prompt
}

func (m *memPrompts) Create(_ context.Context, p agent.Prompt) error {
	m.rows[p.ID] = p
	return nil
}

func (m *memPrompts) FindByID(_ context.Context, id string) (*agent.Prompt, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, agent.PromptNotFound(id)
	}
	return &p, nil
}

func (m *memPrompts) ListByUser(_ context.Context, userID kernel.UserID) ([]*agent.Prompt, error) {
	var out []*agent.Prompt
	for _, p := range m.rows {
		if p.UserID == userID {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (m *memPrompts) Update(_ context.Context, id string, columns map[string]any) error {
	p := m.rows[id]
	if v, ok := columns["template"].(string); ok {
		p.Template = v
	}
	m.rows[id] = p
	return nil
}

func (m *memPrompts) Delete(_ context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

type memAttachments struct {
	rows map[string]agent.AgentDocument
}

func (m *memAttachments) Create(_ context.Context, d agent.AgentDocument) error {
	m.rows[d.ID] = d
	return nil
}

func (m *memAttachments) FindByID(_ context.Context, id string) (*agent.AgentDocument, error) {
	d, ok := m.rows[id]
	if !ok {
		return nil, agent.ErrRegistry.New(agent.ErrDocumentNotFound)
	}
	return &d, nil
}

func (m *memAttachments) ListByAgent(_ context.Context, agentID string) ([]*agent.AgentDocument, error) {
	var out []*agent.AgentDocument
	for _, d := range m.rows {
		if d.AgentID == agentID {
			out = append(out, &d)
		}
	}
	return out, nil
}

func (m *memAttachments) Delete(_ context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

type ownedDocs map[string]kernel.UserID

func (o ownedDocs) Owns(_ context.Context, userID kernel.UserID, id string) (bool, error) {
	return o[id] == userID, nil
}

type fixture struct {
	svc     *AgentService
	agents  *memAgents
	prompts *memPrompts
	attach  *memAttachments
}

func newFixture() *fixture {
	f := &fixture{
		agents:  &memAgents{rows: map[string]agent.Agent{}},
		prompts: &memPrompts{rows: map[string]agent.Prompt{}},
		attach:  &memAttachments{rows: map[string]agent.AgentDocument{}},
	}
	f.svc = NewAgentService(f.agents, f.prompts, f.attach, ownedDocs{"doc-1": "u1", "doc-2": "u2"})
	return f
}

func TestCreateAgent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, err := f.svc.CreateAgent(ctx, "u1", agent.CreateAgentRequest{Name: "helper", Type: agent.TypeReact, LLM: agent.LLMConfig{Provider: "openai"}})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, kernel.UserID("u1"), a.UserID)
	assert.Contains(t, f.agents.rows, a.ID)
}

func TestCreateAgentValidates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreateAgent(ctx, "u1", agent.CreateAgentRequest{Name: "x", Type: "MRKL"})
	assert.True(t, errx.IsCode(err, agent.ErrInvalidBody))

	_, err = f.svc.CreateAgent(ctx, "u1", agent.CreateAgentRequest{Type: agent.TypeReact})
	assert.True(t, errx.IsCode(err, agent.ErrInvalidBody))

	pid := "p-other"
	f.prompts.rows[pid] = agent.Prompt{ID: pid, UserID: "u2"}
	_, err = f.svc.CreateAgent(ctx, "u1", agent.CreateAgentRequest{Name: "x", Type: agent.TypeReact, PromptID: &pid})
	assert.True(t, errx.IsCode(err, agent.ErrPromptNotFound))
}

func TestListAgentsEmptyIsError(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ListAgents(context.Background(), "u1")
	require.True(t, errx.IsCode(err, agent.ErrNoneFound))

	var e *errx.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 500, e.HTTPStatus)
}

func TestListAgentsNewestFirst(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.agents.rows["old"] = agent.Agent{ID: "old", UserID: "u1", CreatedAt: now.Add(-time.Hour)}
	f.agents.rows["new"] = agent.Agent{ID: "new", UserID: "u1", CreatedAt: now}
	f.agents.rows["theirs"] = agent.Agent{ID: "theirs", UserID: "u2", CreatedAt: now}

	list, err := f.svc.ListAgents(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
}

func TestGetAgentAbsentIsStoreFailure(t *testing.T) {
	f := newFixture()
	f.agents.rows["a1"] = agent.Agent{ID: "a1", UserID: "u2"}

	_, err := f.svc.GetAgent(context.Background(), "u1", "a1")
	assert.True(t, errx.IsCode(err, agent.ErrStoreFailure))

	_, err = f.svc.GetAgent(context.Background(), "u1", "missing")
	assert.True(t, errx.IsCode(err, agent.ErrStoreFailure))
}

func TestUpdateAgent(t *testing.T) {
	f := newFixture()
	f.agents.rows["a1"] = agent.Agent{ID: "a1", Name: "old", UserID: "u1", Type: agent.TypeReact}

	a, err := f.svc.UpdateAgent(context.Background(), "u1", "a1", map[string]any{"name": "new", "hasMemory": true})
	require.NoError(t, err)
	assert.Equal(t, "new", a.Name)
	assert.True(t, a.HasMemory)

	_, err = f.svc.UpdateAgent(context.Background(), "u1", "a1", map[string]any{"userId": "u2"})
	assert.True(t, errx.IsCode(err, agent.ErrInvalidBody))

	_, err = f.svc.UpdateAgent(context.Background(), "u1", "a1", map[string]any{"type": "SELF_ASK"})
	assert.True(t, errx.IsCode(err, agent.ErrInvalidBody))

	_, err = f.svc.UpdateAgent(context.Background(), "u2", "a1", map[string]any{"name": "stolen"})
	assert.True(t, errx.IsCode(err, agent.ErrNotFound))
}

func TestDeleteAgentOwnership(t *testing.T) {
	f := newFixture()
	f.agents.rows["a1"] = agent.Agent{ID: "a1", UserID: "u1"}

	err := f.svc.DeleteAgent(context.Background(), "u2", "a1")
	assert.True(t, errx.IsCode(err, agent.ErrNotFound))
	assert.Empty(t, f.agents.deleted)

	require.NoError(t, f.svc.DeleteAgent(context.Background(), "u1", "a1"))
	assert.Equal(t, []string{"a1"}, f.agents.deleted)
}

func TestPromptLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, err := f.svc.CreatePrompt(ctx, "u1", agent.CreatePromptRequest{Name: "tone", Template: "Be {tone}", InputVariables: []string{"tone"}})
	require.NoError(t, err)

	got, err := f.svc.GetPrompt(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Be {tone}", got.Template)

	_, err = f.svc.GetPrompt(ctx, "u2", p.ID)
	assert.True(t, errx.IsCode(err, agent.ErrPromptNotFound))

	updated, err := f.svc.UpdatePrompt(ctx, "u1", p.ID, map[string]any{"template": "Be very {tone}"})
	require.NoError(t, err)
	assert.Equal(t, "Be very {tone}", updated.Template)

	_, err = f.svc.UpdatePrompt(ctx, "u1", p.ID, map[string]any{"id": "x"})
	assert.True(t, errx.IsCode(err, agent.ErrInvalidBody))

	require.NoError(t, f.svc.DeletePrompt(ctx, "u1", p.ID))
	assert.Empty(t, f.prompts.rows)
}

func TestAttachDocument(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.agents.rows["a1"] = agent.Agent{ID: "a1", UserID: "u1"}

	d, err := f.svc.AttachDocument(ctx, "u1", agent.AttachDocumentRequest{AgentID: "a1", DocumentID: "doc-1"})
	require.NoError(t, err)

	_, err = f.svc.AttachDocument(ctx, "u1", agent.AttachDocumentRequest{AgentID: "a1", DocumentID: "doc-2"})
	assert.True(t, errx.IsCode(err, agent.ErrDocumentNotFound))

	list, err := f.svc.ListAttachments(ctx, "u1", "a1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	err = f.svc.DetachDocument(ctx, "u2", d.ID)
	assert.True(t, errx.IsCode(err, agent.ErrDocumentNotFound))

	require.NoError(t, f.svc.DetachDocument(ctx, "u1", d.ID))
	assert.Empty(t, f.attach.rows)
}
