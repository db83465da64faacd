/******************************************************************************
 *
 *  Reconciliation job.
 *
 *  Idempotent full-collection passes which repair drift between canonical
 *  entities and their denormalized copies, and migrate legacy document
 *  shapes. Triggered administratively; a bad record is logged and skipped,
 *  never aborts the run.
 *
 *****************************************************************************/

package main

import (
	"fmt"

	"github.com/agoranet/agora/server/logs"
	"github.com/agoranet/agora/server/store"
	"github.com/agoranet/agora/server/store/types"
)

// reconcileReport summarizes one reconciliation pass.
type reconcileReport struct {
	EntitiesProcessed int      `json:"entitiesProcessed"`
	UsersProcessed    int      `json:"usersProcessed"`
	Errors            []string `json:"errors"`
}

func (r *reconcileReport) fail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logs.Warning.Println("maintenance:", msg)
	r.Errors = append(r.Errors, msg)
}

// rebuildSubscriptions walks every canonical context, force-propagates it
// into subscriber and activity copies, then sweeps user documents for
// orphaned or legacy-shaped membership entries.
func rebuildSubscriptions() *reconcileReport {
	report := &reconcileReport{}

	existing := map[string]bool{}
	contexts, err := store.Contexts.GetAll()
	if err != nil {
		report.fail("loading contexts: %v", err)
		return report
	}
	for i := range contexts {
		ctx := &contexts[i]
		report.EntitiesProcessed++
		existing[ctx.Identifier()] = true

		for _, e := range updateSubscriberCopies(ctx, nil, true) {
			report.fail("context %s: %v", ctx.Identifier(), e)
		}
		if err := updateActivityCopies(ctx, nil, true); err != nil {
			report.fail("context %s activities: %v", ctx.Identifier(), err)
		}
	}

	users, err := store.Users.WithMemberships(types.KindContext)
	if err != nil {
		report.fail("loading subscribed users: %v", err)
		return report
	}
	for i := range users {
		user := &users[i]
		report.UsersProcessed++
		for j := range user.SubscribedTo {
			sub := &user.SubscribedTo[j]
			if !existing[sub.Identifier()] {
				// The canonical context is gone. Drive the orphaned copy
				// through the regular unsubscribe path so hooks still fire.
				logs.Warning.Println("maintenance:", types.ErrDrift, "context", sub.Identifier(), "kept by", user.Username)
				ghost := types.ContextFromSubscription(sub)
				if err := unsubscribe(ghost, user, observerFor(types.KindContext)); err != nil {
					report.fail("orphan %s of %s: %v", sub.Identifier(), user.Username, err)
				}
			} else if sub.HasLegacyOverrides() {
				if err := store.Users.ClearLegacyOverrides(user.Username, types.KindContext, sub.Identifier()); err != nil {
					report.fail("legacy overrides %s of %s: %v", sub.Identifier(), user.Username, err)
				}
			}
		}
	}

	return report
}

// rebuildConversations walks every conversation, migrates ancient participant
// shapes, recomputes lifecycle tags, force-propagates, then sweeps user
// membership arrays the same way rebuildSubscriptions does for contexts.
func rebuildConversations() *reconcileReport {
	report := &reconcileReport{}

	existing := map[string]*types.Conversation{}
	conversations, err := store.Conversations.GetAll()
	if err != nil {
		report.fail("loading conversations: %v", err)
		return report
	}
	for i := range conversations {
		conv := &conversations[i]
		report.EntitiesProcessed++
		existing[conv.Id] = conv

		migrated := conv.MigrateParticipants()
		conv.RecomputeTags()
		if err := store.Conversations.Update(conv.Id, map[string]interface{}{
			"participants": conv.Participants,
			"tags":         conv.Tags,
		}); err != nil {
			report.fail("conversation %s: %v", conv.Id, err)
			continue
		}
		if migrated {
			logs.Info.Println("maintenance: migrated participants of", conv.Id)
		}

		for _, e := range updateSubscriberCopies(conv, nil, true) {
			report.fail("conversation %s: %v", conv.Id, e)
		}
		if err := updateActivityCopies(conv, nil, true); err != nil {
			report.fail("conversation %s activities: %v", conv.Id, err)
		}
	}

	users, err := store.Users.WithMemberships(types.KindConversation)
	if err != nil {
		report.fail("loading conversation members: %v", err)
		return report
	}
	for i := range users {
		user := &users[i]
		report.UsersProcessed++
		for j := range user.TalkingIn {
			sub := &user.TalkingIn[j]
			conv := existing[sub.Identifier()]
			if conv == nil {
				logs.Warning.Println("maintenance:", types.ErrDrift, "conversation", sub.Identifier(), "kept by", user.Username)
				ghost := types.ConversationFromSubscription(sub)
				if err := unsubscribe(ghost, user, observerFor(types.KindConversation)); err != nil {
					report.fail("orphan %s of %s: %v", sub.Identifier(), user.Username, err)
				}
			} else if sub.HasLegacyParticipants() {
				if err := store.Users.UpdateSubscription(user.Username, types.KindConversation, sub.Identifier(),
					map[string]interface{}{"participants": conv.Participants}); err != nil {
					report.fail("legacy participants %s of %s: %v", sub.Identifier(), user.Username, err)
				}
			}
		}
	}

	return report
}

// rebuildUsers repairs user documents whose owner field drifted away from
// the username.
func rebuildUsers() *reconcileReport {
	report := &reconcileReport{}

	users, err := store.Users.GetAll()
	if err != nil {
		report.fail("loading users: %v", err)
		return report
	}
	for i := range users {
		user := &users[i]
		report.UsersProcessed++
		if user.Owner != user.Username {
			if err := store.Users.Update(user.Username, map[string]interface{}{"_owner": user.Username}); err != nil {
				report.fail("re-owning %s: %v", user.Username, err)
			}
		}
	}

	return report
}
