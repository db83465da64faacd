/******************************************************************************
 *
 *  Membership hooks.
 *
 *  Side effects fired after subscription changes: broker bindings which
 *  mirror who is listening to which context or conversation.
 *
 *****************************************************************************/

package main

import (
	"github.com/agoranet/agora/server/logs"
	"github.com/agoranet/agora/server/store/types"
)

// MembershipObserver gets notified after a membership change has been
// persisted. Observers must tolerate repeated delivery: maintenance replays
// them when rebuilding state.
type MembershipObserver interface {
	// AfterCreate is called once the canonical entity exists.
	AfterCreate(c types.Canonical)
	// AfterAdd is called after username has been subscribed to c.
	AfterAdd(c types.Canonical, username string)
	// AfterRemove is called after username has been unsubscribed from c.
	AfterRemove(c types.Canonical, username string)
	// AfterDelete is called after the canonical entity has been removed.
	AfterDelete(c types.Canonical)
}

// contextObserver keeps broker bindings for contexts. A user is bound only
// while the context has notifications enabled; unbinding is unconditional so
// stale bindings clear themselves on unsubscribe.
type contextObserver struct{}

func (contextObserver) AfterCreate(c types.Canonical) {
	if !c.NotificationsEnabled() {
		return
	}
	if err := globals.notifier.DeclareEntityExchange(c.Identifier()); err != nil {
		logs.Warning.Println("hooks: declare exchange:", c.Identifier(), err)
	}
}

func (contextObserver) AfterAdd(c types.Canonical, username string) {
	if !c.NotificationsEnabled() {
		return
	}
	if err := globals.notifier.BindUser(username, c.Identifier()); err != nil {
		logs.Warning.Println("hooks: bind", username, "to", c.Identifier(), err)
	}
}

func (contextObserver) AfterRemove(c types.Canonical, username string) {
	if err := globals.notifier.UnbindUser(username, c.Identifier()); err != nil {
		logs.Warning.Println("hooks: unbind", username, "from", c.Identifier(), err)
	}
}

func (contextObserver) AfterDelete(c types.Canonical) {
	if err := globals.notifier.DeleteEntityExchange(c.Identifier()); err != nil {
		logs.Warning.Println("hooks: delete exchange:", c.Identifier(), err)
	}
}

// conversationObserver keeps broker bindings for conversations. Unlike
// contexts, conversations always deliver in real time, so bindings do not
// depend on a notifications flag.
type conversationObserver struct{}

func (conversationObserver) AfterCreate(c types.Canonical) {
	ident := c.Identifier()
	if err := globals.notifier.DeclareEntityExchange(ident); err != nil {
		logs.Warning.Println("hooks: declare exchange:", ident, err)
		return
	}
	var participants []string
	for _, p := range c.GetParticipants() {
		participants = append(participants, p.Username)
	}
	if err := globals.notifier.AnnounceConversation(ident, c.GetOwner(), participants); err != nil {
		logs.Warning.Println("hooks: announce conversation:", ident, err)
	}
}

func (conversationObserver) AfterAdd(c types.Canonical, username string) {
	if err := globals.notifier.BindUser(username, c.Identifier()); err != nil {
		logs.Warning.Println("hooks: bind", username, "to", c.Identifier(), err)
	}
}

func (conversationObserver) AfterRemove(c types.Canonical, username string) {
	if err := globals.notifier.UnbindUser(username, c.Identifier()); err != nil {
		logs.Warning.Println("hooks: unbind", username, "from", c.Identifier(), err)
	}
}

func (conversationObserver) AfterDelete(c types.Canonical) {
	if err := globals.notifier.DeleteEntityExchange(c.Identifier()); err != nil {
		logs.Warning.Println("hooks: delete exchange:", c.Identifier(), err)
	}
}

// nopObserver is used when side effects are unwanted, e.g. during
// maintenance rebuilds which must not re-announce conversations.
type nopObserver struct{}

func (nopObserver) AfterCreate(types.Canonical)         {}
func (nopObserver) AfterAdd(types.Canonical, string)    {}
func (nopObserver) AfterRemove(types.Canonical, string) {}
func (nopObserver) AfterDelete(types.Canonical)         {}

// observerFor picks the observer matching the entity kind.
func observerFor(kind types.MembershipKind) MembershipObserver {
	if kind == types.KindConversation {
		return conversationObserver{}
	}
	return contextObserver{}
}
