// Package router drives one conversational turn through an explicit
// finite-state graph: intent analysis, an optional search or license-check
// node, then exactly one response node. Node failures degrade to documented
// fallbacks; the graph always reaches the end with a single assistant
// message.
package router

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"talentscout/internal/sfc"
	"talentscout/internal/specialist"
	"talentscout/internal/store"
)

// Node is one state in the conversation graph.
type Node string

const (
	NodeStart           Node = "start"
	NodeIntentAnalysis  Node = "intent_analysis"
	NodeSearch          Node = "search"
	NodeSFCCheck        Node = "sfc_check"
	NodeResponseSearch  Node = "response_search"
	NodeResponseInfo    Node = "response_info"
	NodeResponseSFC     Node = "response_sfc"
	NodeResponseGeneral Node = "response_general"
	NodeEnd             Node = "end"
)

type transitionKey struct {
	node  Node
	route string
}

// transitions is the complete dispatch table. Every (node, routing key)
// pair maps to the next node; response nodes all terminate.
var transitions = map[transitionKey]Node{
	{NodeStart, ""}: NodeIntentAnalysis,

	{NodeIntentAnalysis, "search"}:      NodeSearch,
	{NodeIntentAnalysis, "info"}:        NodeSearch,
	{NodeIntentAnalysis, "sfc_license"}: NodeSFCCheck,
	{NodeIntentAnalysis, "general"}:     NodeResponseGeneral,

	{NodeSearch, "search"}: NodeResponseSearch,
	{NodeSearch, "info"}:   NodeResponseInfo,

	{NodeSFCCheck, ""}: NodeResponseSFC,

	{NodeResponseSearch, ""}:  NodeEnd,
	{NodeResponseInfo, ""}:    NodeEnd,
	{NodeResponseSFC, ""}:     NodeEnd,
	{NodeResponseGeneral, ""}: NodeEnd,
}

// SearchStore is the candidate-search collaborator.
type SearchStore interface {
	SemanticSearch(ctx context.Context, query string, n int) ([]store.SearchResult, error)
}

// LicenseChecker is the external license-verification collaborator.
type LicenseChecker interface {
	Check(ctx context.Context, candidateName string) sfc.Outcome
}

// Specialists bundles the LLM-backed units the nodes run.
type Specialists struct {
	Intent  *specialist.IntentClassifier
	Name    *specialist.NameExtractor
	Query   *specialist.QueryEnhancer
	Search  *specialist.Responder
	Info    *specialist.Responder
	General *specialist.Responder
	License *specialist.LicenseResponder
}

// Turn is one transcript entry.
type Turn struct {
	Role string
	Text string
}

// ChatState is the single mutable record of one in-flight turn. It is
// created at turn start and owned exclusively by that turn.
type ChatState struct {
	TurnID        string
	Message       string
	Intent        specialist.IntentResult
	SearchQuery   string
	Results       []store.SearchResult
	Context       string
	CandidateName string
	License       sfc.Outcome
	Reply         string
}

// Fetch widths and context depths per flow.
const (
	searchFetchN  = 10
	infoFetchN    = 20
	searchTopK    = 3
	infoTopK      = 2
	historyWindow = 6
)

// Router executes turns. The only cross-turn state is the append-only
// transcript; each turn gets its own ChatState.
type Router struct {
	sp      Specialists
	store   SearchStore
	checker LicenseChecker
	log     *zap.Logger

	mu         sync.Mutex
	transcript []Turn
}

// New wires the router with its collaborators.
func New(sp Specialists, st SearchStore, checker LicenseChecker, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{sp: sp, store: st, checker: checker, log: log}
}

// Transcript returns a copy of the conversation so far.
func (r *Router) Transcript() []Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Turn, len(r.transcript))
	copy(out, r.transcript)
	return out
}

// Chat executes one turn synchronously and returns the assistant reply.
func (r *Router) Chat(ctx context.Context, message string) string {
	st := r.newState(message)
	node := r.advance(ctx, st)
	st.Reply = r.respond(ctx, node, st)
	r.record(message, st.Reply)
	return st.Reply
}

// ChatStream executes one turn, resolving intent, search and license checks
// synchronously and streaming only the terminal response. If the stream
// breaks, the flow's fallback is emitted as the final chunk so the turn
// still ends with exactly one assistant message.
func (r *Router) ChatStream(ctx context.Context, message string) <-chan string {
	st := r.newState(message)
	node := r.advance(ctx, st)

	out := make(chan string)
	go func() {
		defer close(out)

		stream, err := r.streamFor(ctx, node, st)
		if err != nil {
			fallback := r.fallbackFor(node, st)
			r.log.Warn("response stream failed, emitting fallback",
				zap.String("turn", st.TurnID), zap.Error(err))
			out <- fallback
			r.record(message, fallback)
			return
		}

		var reply strings.Builder
		for chunk := range stream {
			reply.WriteString(chunk)
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if strings.TrimSpace(reply.String()) == "" {
			fallback := r.fallbackFor(node, st)
			out <- fallback
			r.record(message, fallback)
			return
		}
		r.record(message, reply.String())
	}()
	return out
}

func (r *Router) newState(message string) *ChatState {
	return &ChatState{
		TurnID:  uuid.NewString(),
		Message: message,
	}
}

func (r *Router) record(message, reply string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcript = append(r.transcript,
		Turn{Role: "user", Text: message},
		Turn{Role: "assistant", Text: reply})
}

// advance walks the graph from Start until a response node is reached.
func (r *Router) advance(ctx context.Context, st *ChatState) Node {
	node := NodeStart
	for {
		var route string
		switch node {
		case NodeStart:
			route = ""
		case NodeIntentAnalysis:
			route = r.handleIntent(ctx, st)
		case NodeSearch:
			route = r.handleSearch(ctx, st)
		case NodeSFCCheck:
			route = r.handleSFCCheck(ctx, st)
		default:
			return node
		}

		next, ok := transitions[transitionKey{node, route}]
		if !ok {
			// an unmapped routing key degrades to the general flow
			r.log.Warn("unmapped route, degrading to general",
				zap.String("node", string(node)), zap.String("route", route))
			return NodeResponseGeneral
		}
		node = next
	}
}

// handleIntent classifies the utterance. The routing key is the intent
// itself; anything outside the mapped set lands on general.
func (r *Router) handleIntent(ctx context.Context, st *ChatState) string {
	st.Intent = r.sp.Intent.Classify(ctx, st.Message)
	r.log.Debug("intent resolved",
		zap.String("turn", st.TurnID),
		zap.String("intent", string(st.Intent.Intent)),
		zap.Float64("confidence", st.Intent.Confidence))

	switch st.Intent.Intent {
	case specialist.IntentSearch, specialist.IntentInfo, specialist.IntentLicense:
		return string(st.Intent.Intent)
	default:
		return "general"
	}
}

// handleSearch resolves candidates for both the search and info flows. The
// info flow narrows a broad fetch by the extracted name; the search flow
// widens the query first.
func (r *Router) handleSearch(ctx context.Context, st *ChatState) string {
	if st.Intent.Intent == specialist.IntentInfo {
		st.CandidateName = r.sp.Name.Extract(ctx, st.Message)
		if st.CandidateName != "" {
			st.Results = r.nameScopedLookup(ctx, st.Message, st.CandidateName)
			st.Context = buildContext(st.Results, infoTopK)
			return "info"
		}
		// no name found: fall through to the broad lookup but keep the
		// info response flow
		st.SearchQuery = r.sp.Query.Enhance(ctx, st.Message)
		st.Results = r.lookup(ctx, st.SearchQuery, searchFetchN)
		st.Context = buildContext(st.Results, infoTopK)
		return "info"
	}

	query := st.Intent.SearchQuery
	if query == "" {
		query = st.Message
	}
	st.SearchQuery = r.sp.Query.Enhance(ctx, query)
	st.Results = r.lookup(ctx, st.SearchQuery, searchFetchN)
	st.Context = buildContext(st.Results, searchTopK)
	return "search"
}

// handleSFCCheck extracts the candidate name and runs the license
// collaborator. An empty name produces the error payload immediately,
// without an external call.
func (r *Router) handleSFCCheck(ctx context.Context, st *ChatState) string {
	st.CandidateName = r.sp.Name.Extract(ctx, st.Message)
	if st.CandidateName == "" {
		st.License = sfc.Outcome{
			Success:               false,
			SFO:                   sfc.StatusUnknown,
			AMLO:                  sfc.StatusUnknown,
			Err:                   "No candidate name could be identified for the license check",
			ManualVerificationURL: sfc.ManualVerificationURL,
		}
		return ""
	}
	st.License = r.checker.Check(ctx, st.CandidateName)
	return ""
}

func (r *Router) lookup(ctx context.Context, query string, n int) []store.SearchResult {
	results, err := r.store.SemanticSearch(ctx, query, n)
	if err != nil {
		r.log.Warn("candidate lookup failed", zap.Error(err))
		return nil
	}
	return results
}

// nameScopedLookup fetches broadly and keeps results whose candidate name
// textually contains the extracted name or any of its tokens.
func (r *Router) nameScopedLookup(ctx context.Context, message, name string) []store.SearchResult {
	results := r.lookup(ctx, message, infoFetchN)
	tokens := strings.Fields(strings.ToLower(name))

	var kept []store.SearchResult
	for _, res := range results {
		candidate := strings.ToLower(res.Name)
		if strings.Contains(candidate, strings.ToLower(name)) {
			kept = append(kept, res)
			continue
		}
		for _, tok := range tokens {
			if strings.Contains(candidate, tok) {
				kept = append(kept, res)
				break
			}
		}
	}
	return kept
}

// respond runs the terminal node synchronously. Responders never fail.
func (r *Router) respond(ctx context.Context, node Node, st *ChatState) string {
	switch node {
	case NodeResponseSearch:
		return r.sp.Search.Respond(ctx, r.searchInputs(st))
	case NodeResponseInfo:
		return r.sp.Info.Respond(ctx, r.infoInputs(st))
	case NodeResponseSFC:
		return r.sp.License.Respond(ctx, st.License)
	default:
		return r.sp.General.Respond(ctx, r.generalInputs(st))
	}
}

func (r *Router) streamFor(ctx context.Context, node Node, st *ChatState) (<-chan string, error) {
	switch node {
	case NodeResponseSearch:
		return r.sp.Search.Stream(ctx, r.searchInputs(st))
	case NodeResponseInfo:
		return r.sp.Info.Stream(ctx, r.infoInputs(st))
	case NodeResponseSFC:
		return r.sp.License.Stream(ctx, st.License)
	default:
		return r.sp.General.Stream(ctx, r.generalInputs(st))
	}
}

func (r *Router) fallbackFor(node Node, st *ChatState) string {
	switch node {
	case NodeResponseSearch:
		return r.sp.Search.Fallback()
	case NodeResponseInfo:
		return r.sp.Info.Fallback()
	case NodeResponseSFC:
		return r.sp.License.Fallback(st.License)
	default:
		return r.sp.General.Fallback()
	}
}

func (r *Router) searchInputs(st *ChatState) map[string]string {
	return map[string]string{
		"user_message": r.withHistory(st.Message),
		"context":      st.Context,
		"num_results":  fmt.Sprintf("%d", len(st.Results)),
	}
}

func (r *Router) infoInputs(st *ChatState) map[string]string {
	return map[string]string{
		"user_message": r.withHistory(st.Message),
		"context":      st.Context,
	}
}

func (r *Router) generalInputs(st *ChatState) map[string]string {
	return map[string]string{
		"user_message": r.withHistory(st.Message),
	}
}

// withHistory prepends the recent transcript, trimmed to the last turns,
// so responders can resolve follow-up phrasing.
func (r *Router) withHistory(message string) string {
	r.mu.Lock()
	transcript := r.transcript
	if len(transcript) > historyWindow {
		transcript = transcript[len(transcript)-historyWindow:]
	}
	var b strings.Builder
	for _, t := range transcript {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
	}
	r.mu.Unlock()

	if b.Len() == 0 {
		return message
	}
	return "Recent conversation:\n" + b.String() + "\nCurrent message: " + message
}

// buildContext renders the top results into the short textual summary the
// responders consume.
func buildContext(results []store.SearchResult, topK int) string {
	if len(results) == 0 {
		return "No candidate data available."
	}
	if len(results) > topK {
		results = results[:topK]
	}
	var b strings.Builder
	for i, res := range results {
		fmt.Fprintf(&b, "Candidate %d: %s\n", i+1, res.Name)
		if res.Document != "" {
			b.WriteString(res.Document)
			b.WriteString("\n")
		}
		for k, v := range res.Metadata {
			fmt.Fprintf(&b, "- %s: %s\n", k, v)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
