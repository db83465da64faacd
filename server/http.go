/******************************************************************************
 *
 *  HTTP surface.
 *
 *  Thin JSON endpoints over the lifecycle manager plus administrative
 *  maintenance triggers. Authentication is external: the authenticated
 *  caller arrives in the X-Actor header, already validated upstream.
 *
 *****************************************************************************/

package main

import (
	"encoding/json"
	"net/http"

	"github.com/agoranet/agora/server/logs"
	"github.com/agoranet/agora/server/store"
	"github.com/agoranet/agora/server/store/types"
)

// writeJSON marshals the payload with the given status code.
func writeJSON(wrt http.ResponseWriter, code int, payload interface{}) {
	wrt.Header().Set("Content-Type", "application/json; charset=utf-8")
	wrt.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(wrt).Encode(payload); err != nil {
			logs.Err.Println("http: writing response:", err)
		}
	}
}

// writeError maps a store error onto an HTTP status.
func writeError(wrt http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch err {
	case types.ErrMalformed, types.ErrUnresolvable:
		code = http.StatusBadRequest
	case types.ErrNotFound, types.ErrNotSubscribed:
		code = http.StatusNotFound
	case types.ErrDuplicate:
		code = http.StatusConflict
	case types.ErrPermissionDenied:
		code = http.StatusForbidden
	case types.ErrUnauthorized:
		code = http.StatusUnauthorized
	}
	writeJSON(wrt, code, map[string]string{"error": err.Error()})
}

// requester returns the externally authenticated caller.
func requester(req *http.Request) string {
	return req.Header.Get("X-Actor")
}

func setupMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /contexts", serveContextCreate)
	mux.HandleFunc("GET /contexts/{hash}", serveContextGet)
	mux.HandleFunc("PUT /contexts/{hash}", serveContextModify)
	mux.HandleFunc("DELETE /contexts/{hash}", serveContextDelete)
	mux.HandleFunc("POST /contexts/{hash}/subscriptions/{username}", serveContextSubscribe)
	mux.HandleFunc("DELETE /contexts/{hash}/subscriptions/{username}", serveContextUnsubscribe)
	mux.HandleFunc("GET /contexts/{hash}/permissions/{username}", serveContextPermissions)

	mux.HandleFunc("POST /users/{username}", serveUserCreate)
	mux.HandleFunc("GET /users/{username}", serveUserGet)

	mux.HandleFunc("POST /conversations", serveConversationCreate)
	mux.HandleFunc("DELETE /conversations/{id}", serveConversationDelete)
	mux.HandleFunc("POST /conversations/{id}/participants/{username}", serveConversationJoin)
	mux.HandleFunc("DELETE /conversations/{id}/participants/{username}", serveConversationLeave)

	mux.HandleFunc("POST /maintenance/subscriptions", serveMaintenance(rebuildSubscriptions))
	mux.HandleFunc("POST /maintenance/conversations", serveMaintenance(rebuildConversations))
	mux.HandleFunc("POST /maintenance/users", serveMaintenance(rebuildUsers))

	return mux
}

func serveContextCreate(wrt http.ResponseWriter, req *http.Request) {
	var ctx types.Context
	if err := json.NewDecoder(req.Body).Decode(&ctx); err != nil {
		writeError(wrt, types.ErrMalformed)
		return
	}
	ctx.Creator = requester(req)
	if err := store.Contexts.Create(&ctx); err != nil {
		writeError(wrt, err)
		return
	}
	observerFor(types.KindContext).AfterCreate(&ctx)
	statsInc("LiveContexts", 1)
	writeJSON(wrt, http.StatusCreated, &ctx)
}

func serveContextGet(wrt http.ResponseWriter, req *http.Request) {
	ctx, err := store.Contexts.Get(req.PathValue("hash"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	writeJSON(wrt, http.StatusOK, ctx)
}

func serveContextModify(wrt http.ResponseWriter, req *http.Request) {
	ctx, err := store.Contexts.Get(req.PathValue("hash"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	var upd contextUpdate
	if err := json.NewDecoder(req.Body).Decode(&upd); err != nil {
		writeError(wrt, types.ErrMalformed)
		return
	}
	updated, err := modifyContext(ctx, &upd)
	if err != nil {
		writeError(wrt, err)
		return
	}
	statsInc("PropagationPasses", 1)
	writeJSON(wrt, http.StatusOK, updated)
}

func serveContextDelete(wrt http.ResponseWriter, req *http.Request) {
	ctx, err := store.Contexts.Get(req.PathValue("hash"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	soft := req.URL.Query().Get("purge") != "true"
	if err := deleteCanonical(ctx, soft, observerFor(types.KindContext)); err != nil {
		writeError(wrt, err)
		return
	}
	statsInc("LiveContexts", -1)
	writeJSON(wrt, http.StatusOK, nil)
}

func serveContextSubscribe(wrt http.ResponseWriter, req *http.Request) {
	ctx, err := store.Contexts.Get(req.PathValue("hash"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	user, err := store.Users.Get(req.PathValue("username"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	sub, err := subscribe(ctx, user, observerFor(types.KindContext))
	if err != nil {
		writeError(wrt, err)
		return
	}
	statsInc("LiveSubscriptions", 1)
	writeJSON(wrt, http.StatusCreated, sub)
}

func serveContextUnsubscribe(wrt http.ResponseWriter, req *http.Request) {
	ctx, err := store.Contexts.Get(req.PathValue("hash"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	user, err := store.Users.Get(req.PathValue("username"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	if err := unsubscribe(ctx, user, observerFor(types.KindContext)); err != nil {
		writeError(wrt, err)
		return
	}
	statsInc("LiveSubscriptions", -1)
	writeJSON(wrt, http.StatusOK, nil)
}

func serveContextPermissions(wrt http.ResponseWriter, req *http.Request) {
	ctx, err := store.Contexts.Get(req.PathValue("hash"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	user, err := store.Users.Get(req.PathValue("username"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	perms, err := effectivePermissions(ctx, user)
	if err != nil {
		writeError(wrt, err)
		return
	}
	writeJSON(wrt, http.StatusOK, map[string][]types.Permission{"permissions": perms})
}

func serveUserCreate(wrt http.ResponseWriter, req *http.Request) {
	var user types.User
	if req.ContentLength > 0 {
		if err := json.NewDecoder(req.Body).Decode(&user); err != nil {
			writeError(wrt, types.ErrMalformed)
			return
		}
	}
	user.Username = req.PathValue("username")
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}
	if err := store.Users.Create(&user); err != nil {
		writeError(wrt, err)
		return
	}
	writeJSON(wrt, http.StatusCreated, &user)
}

func serveUserGet(wrt http.ResponseWriter, req *http.Request) {
	user, err := store.Users.Get(req.PathValue("username"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	writeJSON(wrt, http.StatusOK, user)
}

func serveConversationCreate(wrt http.ResponseWriter, req *http.Request) {
	var body struct {
		DisplayName  string              `json:"displayName"`
		Participants []types.Participant `json:"participants"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(wrt, types.ErrMalformed)
		return
	}
	creator, err := store.Users.Get(requester(req))
	if err != nil {
		writeError(wrt, err)
		return
	}
	conv, err := createConversation(creator, body.DisplayName, body.Participants)
	if err != nil {
		writeError(wrt, err)
		return
	}
	statsInc("LiveConversations", 1)
	writeJSON(wrt, http.StatusCreated, conv)
}

func serveConversationDelete(wrt http.ResponseWriter, req *http.Request) {
	conv, err := store.Conversations.Get(req.PathValue("id"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	if conv.Owner != requester(req) {
		writeError(wrt, types.ErrUnauthorized)
		return
	}
	// Conversation messages are removed for real, unlike context activities
	// which are only marked deleted.
	if err := deleteCanonical(conv, false, observerFor(types.KindConversation)); err != nil {
		writeError(wrt, err)
		return
	}
	statsInc("LiveConversations", -1)
	writeJSON(wrt, http.StatusOK, nil)
}

func serveConversationJoin(wrt http.ResponseWriter, req *http.Request) {
	conv, err := store.Conversations.Get(req.PathValue("id"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	actor, err := store.Users.Get(req.PathValue("username"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	sub, err := joinConversation(conv, actor, requester(req))
	if err != nil {
		writeError(wrt, err)
		return
	}
	writeJSON(wrt, http.StatusCreated, sub)
}

func serveConversationLeave(wrt http.ResponseWriter, req *http.Request) {
	conv, err := store.Conversations.Get(req.PathValue("id"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	actor, err := store.Users.Get(req.PathValue("username"))
	if err != nil {
		writeError(wrt, err)
		return
	}
	if err := leaveConversation(conv, actor, requester(req)); err != nil {
		writeError(wrt, err)
		return
	}
	writeJSON(wrt, http.StatusOK, nil)
}

// serveMaintenance wraps a reconciliation pass into an admin endpoint.
func serveMaintenance(pass func() *reconcileReport) http.HandlerFunc {
	return func(wrt http.ResponseWriter, req *http.Request) {
		report := pass()
		statsInc("ReconciliationRuns", 1)
		statsSet("ReconciliationErrors", int64(len(report.Errors)))
		writeJSON(wrt, http.StatusOK, report)
	}
}
