package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/adapters/file"
	httpadapter "github.com/aretw0/espalier/internal/adapters/http"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
)

func apiTree() *domain.TreeDocument {
	return &domain.TreeDocument{
		Metadata: domain.Metadata{
			Title:       "Networking Decision Tree",
			Version:     "1.0",
			CreatedAt:   "2025-01-15T10:00:00Z",
			ExpertType:  "Networking",
			Description: "A networking tree",
			Author:      "espalier",
		},
		ConversationFlow: []domain.Node{
			{
				NodeID:       "root",
				Question:     "Pick a topic",
				QuestionType: domain.QuestionTypeMultipleChoice,
				Options: []domain.Option{
					{OptionID: "1", Text: "Routing", NextNode: "follow_up"},
				},
				DefaultNextNode: "follow_up",
			},
			{
				NodeID:          "follow_up",
				Question:        "Anything else?",
				QuestionType:    domain.QuestionTypeOpen,
				DefaultNextNode: "follow_up",
			},
		},
	}
}

// newTestAPI runs the handler model-free, so assistant replies are the
// connection fallback.
func newTestAPI(t *testing.T) (*httptest.Server, *file.Store) {
	t.Helper()

	engine, err := espalier.NewFromDocument(apiTree())
	require.NoError(t, err)

	store := file.New(t.TempDir())
	srv := httptest.NewServer(httpadapter.NewHandler(engine, store, logging.NewNop(), nil, nil))
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestGetTree(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/tree")
	require.NoError(t, err)
	defer resp.Body.Close()

	var tree domain.TreeDocument
	decode(t, resp, &tree)
	assert.Equal(t, "Networking", tree.Metadata.ExpertType)
	assert.Len(t, tree.ConversationFlow, 2)
}

func TestConversationLifecycle(t *testing.T) {
	srv, store := newTestAPI(t)

	resp := postJSON(t, srv.URL+"/conversations", map[string]string{"expert_type": "Networking"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Node   *struct {
			NodeID  string   `json:"node_id"`
			Options []string `json:"options"`
		} `json:"node"`
	}
	decode(t, resp, &created)
	require.NotEmpty(t, created.ID)
	assert.True(t, strings.HasPrefix(created.ID, "Networking_decision_tree_"))
	require.NotNil(t, created.Node)
	assert.Equal(t, "root", created.Node.NodeID)
	assert.Equal(t, []string{"Routing"}, created.Node.Options)

	var answered struct {
		Outcome  string `json:"outcome"`
		Reply    string `json:"reply"`
		Fallback bool   `json:"fallback"`
		Status   string `json:"status"`
		Node     *struct {
			NodeID string `json:"node_id"`
		} `json:"node"`
	}
	resp = postJSON(t, srv.URL+"/conversations/"+created.ID+"/respond", map[string]string{"input": "1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &answered)
	assert.Equal(t, "advance", answered.Outcome)
	assert.True(t, answered.Fallback, "model-free runs reply with the fallback")
	assert.NotEmpty(t, answered.Reply)
	require.NotNil(t, answered.Node)
	assert.Equal(t, "follow_up", answered.Node.NodeID)

	// A live session is reported before it is stored.
	resp2, err := http.Get(srv.URL + "/conversations/" + created.ID)
	require.NoError(t, err)
	defer resp2.Body.Close()
	var live struct {
		Status string `json:"status"`
		Turns  int    `json:"turns"`
	}
	decode(t, resp2, &live)
	assert.Equal(t, 1, live.Turns)

	resp = postJSON(t, srv.URL+"/conversations/"+created.ID+"/respond", map[string]string{"input": "exit"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var exited struct {
		Outcome string `json:"outcome"`
		Status  string `json:"status"`
		Node    any    `json:"node"`
	}
	decode(t, resp, &exited)
	assert.Equal(t, "exit", exited.Outcome)
	assert.Equal(t, "terminated", exited.Status)
	assert.Nil(t, exited.Node)

	// Exit persisted the document and dropped the session.
	doc, err := store.Load(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Len(t, doc.ConversationHistory, 2)

	resp = postJSON(t, srv.URL+"/conversations/"+created.ID+"/respond", map[string]string{"input": "1"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The stored copy answers reads now that the session is gone.
	resp3, err := http.Get(srv.URL + "/conversations/" + created.ID)
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusOK, resp3.StatusCode)
	var stored domain.ConversationDocument
	decode(t, resp3, &stored)
	assert.Len(t, stored.ConversationHistory, 2)
}

// Concurrent responds against one conversation must serialize on the
// session, not just on the session map.
func TestRespond_ConcurrentSameSession(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp := postJSON(t, srv.URL+"/conversations", map[string]string{"expert_type": "Networking"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, resp, &created)

	url := srv.URL + "/conversations/" + created.ID + "/respond"
	body := []byte(`{"input": "help"}`)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				resp, err := http.Post(url, "application/json", bytes.NewReader(body))
				if err != nil {
					t.Error(err)
					return
				}
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	// The session is still coherent after the stampede.
	resp = postJSON(t, url, map[string]string{"input": "1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var answered struct {
		Outcome string `json:"outcome"`
		Node    *struct {
			NodeID string `json:"node_id"`
		} `json:"node"`
	}
	decode(t, resp, &answered)
	assert.Equal(t, "advance", answered.Outcome)
	require.NotNil(t, answered.Node)
	assert.Equal(t, "follow_up", answered.Node.NodeID)
}

func TestCreateConversation_Validation(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp := postJSON(t, srv.URL+"/conversations", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRespond_UnknownID(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp := postJSON(t, srv.URL+"/conversations/nope/respond", map[string]string{"input": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListConversations(t *testing.T) {
	srv, store := newTestAPI(t)

	engine, err := espalier.NewFromDocument(apiTree())
	require.NoError(t, err)
	conv, err := engine.Start("Networking")
	require.NoError(t, err)
	_, err = conv.Present()
	require.NoError(t, err)
	_, err = conv.Respond(t.Context(), "exit")
	require.NoError(t, err)
	require.NoError(t, store.Save(t.Context(), "stored_one", conv.Document()))

	resp, err := http.Get(srv.URL + "/conversations")
	require.NoError(t, err)
	defer resp.Body.Close()

	var listed struct {
		Conversations []string `json:"conversations"`
	}
	decode(t, resp, &listed)
	assert.Equal(t, []string{"stored_one"}, listed.Conversations)
}
