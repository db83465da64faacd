/******************************************************************************
 *
 *  Lifecycle manager.
 *
 *  Subscribe / unsubscribe / modify / delete workflows over canonical
 *  contexts and conversations. Multi-step sequences run synchronously with
 *  no rollback: a failure partway through surfaces to the caller and the
 *  leftover denormalized data is maintenance's job.
 *
 *****************************************************************************/

package main

import (
	"github.com/agoranet/agora/server/logs"
	"github.com/agoranet/agora/server/store"
	"github.com/agoranet/agora/server/store/types"
)

// newSubscribeActivity records a membership event in the activity stream of
// the entity subscribed to.
func newSubscribeActivity(c types.Canonical, user *types.User) *types.Activity {
	act := &types.Activity{
		Verb: "subscribe",
		Actor: types.ActivityActor{
			ObjectType:  "person",
			Username:    user.Username,
			DisplayName: user.DisplayName,
		},
		Object: types.ActivityObject{
			ObjectType: c.GetObjectType(),
		},
		Contexts: []types.ActivitySnapshot{types.SnapshotOf(c)},
	}
	if c.Kind() == types.KindConversation {
		act.Object.Id = c.Identifier()
		act.Object.Participants = c.GetParticipants()
	} else {
		act.Object.URL = c.GetURL()
		act.Object.Hash = c.Identifier()
	}
	return act
}

// subscribe transitions (entity, user) to SUBSCRIBED. Not idempotent: an
// existing membership is an error, callers wanting upsert semantics check
// first. Returns the freshly built subscriber snapshot.
func subscribe(c types.Canonical, user *types.User, obs MembershipObserver) (*types.Subscription, error) {
	if c.Identifier() == "" {
		return nil, types.ErrUnresolvable
	}
	if user.Membership(c.Kind(), c.Identifier()) != nil {
		return nil, types.ErrDuplicate
	}

	sub := c.NewSubscription()
	if err := store.Users.AddSubscription(user.Username, c.Kind(), sub); err != nil {
		return nil, err
	}

	if err := store.Activities.Save(c.Kind(), newSubscribeActivity(c, user)); err != nil {
		return nil, err
	}

	obs.AfterAdd(c, user.Username)
	return sub, nil
}

// unsubscribe transitions (entity, user) back to NOT_SUBSCRIBED. The owner
// of a conversation cannot leave it, only delete it.
func unsubscribe(c types.Canonical, user *types.User, obs MembershipObserver) error {
	ident := c.Identifier()
	if user.Membership(c.Kind(), ident) == nil {
		return types.ErrNotSubscribed
	}
	if c.Kind() == types.KindConversation && c.GetOwner() == user.Username {
		return types.ErrPermissionDenied
	}

	if err := store.Users.RemoveSubscription(user.Username, c.Kind(), ident); err != nil {
		return err
	}

	if conv, ok := c.(*types.Conversation); ok && conv.HasParticipant(user.Username) {
		conv.RemoveParticipant(user.Username)
		err := store.Conversations.Update(ident, map[string]interface{}{
			"participants": conv.Participants,
		})
		if err == types.ErrNotFound {
			// Canonical record already gone; maintenance drives orphaned
			// copies through this path.
			err = nil
		}
		if err != nil {
			return err
		}
		// Remaining members see the shrunk participant list.
		for _, e := range updateSubscriberCopies(conv, fieldSet{fldParticipants: true}, false) {
			logs.Warning.Println("unsubscribe:", e)
		}
	}

	obs.AfterRemove(c, user.Username)
	return nil
}

// deleteCanonical cascades the removal of a canonical entity. Order matters:
// subscribers first, then activities, then the canonical record, so a crash
// mid-sequence leaves only extra denormalized data, never a dangling
// reference to a half-deleted canonical object.
func deleteCanonical(c types.Canonical, soft bool, obs MembershipObserver) error {
	ident := c.Identifier()

	users, err := store.Users.ForMember(c.Kind(), ident)
	if err != nil {
		return err
	}
	for i := range users {
		// Direct removal: the owner-cannot-leave rule does not apply when the
		// whole entity is going away.
		if err := store.Users.RemoveSubscription(users[i].Username, c.Kind(), ident); err != nil {
			return err
		}
		obs.AfterRemove(c, users[i].Username)
	}

	if err := store.Activities.RemoveForContext(c.Kind(), ident, soft); err != nil {
		return err
	}

	if c.Kind() == types.KindConversation {
		err = store.Conversations.Delete(ident)
	} else {
		err = store.Contexts.Delete(ident)
	}
	if err != nil {
		return err
	}

	obs.AfterDelete(c)
	return nil
}

// contextUpdate is the set of modifiable canonical context fields. A nil
// pointer means the field was not part of the request.
type contextUpdate struct {
	DisplayName   *string       `json:"displayName,omitempty"`
	Tags          *[]string     `json:"tags,omitempty"`
	URL           *string       `json:"url,omitempty"`
	Policy        *types.Policy `json:"permissions,omitempty"`
	Notifications *bool         `json:"notifications,omitempty"`
}

// modifyContext applies the requested field changes to the canonical record
// and fans them out to every denormalized copy. Returns the updated context.
func modifyContext(ctx *types.Context, upd *contextUpdate) (*types.Context, error) {
	changed := fieldSet{}
	persist := map[string]interface{}{}

	if upd.URL != nil && *upd.URL != ctx.URL {
		if *upd.URL == "" {
			return nil, types.ErrMalformed
		}
		ctx.SetURL(*upd.URL)
		changed[fldURL] = true
		persist["url"] = ctx.URL
		persist["hash"] = ctx.Hash
	}
	if upd.DisplayName != nil && *upd.DisplayName != ctx.DisplayName {
		ctx.DisplayName = *upd.DisplayName
		changed[fldDisplayName] = true
		persist["displayName"] = ctx.DisplayName
	}
	if upd.Tags != nil {
		ctx.Tags = *upd.Tags
		changed[fldTags] = true
		persist["tags"] = ctx.Tags
	}
	if upd.Policy != nil {
		ctx.Policy = *upd.Policy
		changed[fldPermissions] = true
		persist["permissions"] = ctx.Policy
	}
	if upd.Notifications != nil && *upd.Notifications != ctx.Notifications {
		ctx.Notifications = *upd.Notifications
		changed[fldNotifications] = true
		persist["notifications"] = ctx.Notifications
	}

	if len(persist) == 0 {
		return ctx, nil
	}

	// The canonical record is still stored under its pre-change identifier.
	if err := store.Contexts.Update(ctx.PreviousIdentifier(), persist); err != nil {
		return nil, err
	}

	if err := updateActivityCopies(ctx, changed, false); err != nil {
		logs.Warning.Println("modifyContext: activity copies of", ctx.Identifier(), err)
	}
	for _, e := range updateSubscriberCopies(ctx, changed, false) {
		logs.Warning.Println("modifyContext:", e)
	}

	// A notifications flip rebinds or unbinds every subscriber.
	if changed[fldNotifications] {
		users, err := store.Users.ForMember(types.KindContext, ctx.Identifier())
		if err != nil {
			logs.Warning.Println("modifyContext: loading subscribers of", ctx.Identifier(), err)
		} else {
			for i := range users {
				var err error
				if ctx.Notifications {
					err = globals.notifier.BindUser(users[i].Username, ctx.Identifier())
				} else {
					err = globals.notifier.UnbindUser(users[i].Username, ctx.Identifier())
				}
				if err != nil {
					logs.Warning.Println("modifyContext: rebind", users[i].Username, err)
				}
			}
		}
	}

	return ctx, nil
}

// effectivePermissions computes the current permission set of a subscriber:
// the entity's policy merged with the subscriber's stored overrides. Fails
// with ErrNotSubscribed when no membership exists.
func effectivePermissions(c types.Canonical, user *types.User) ([]types.Permission, error) {
	sub := user.Membership(c.Kind(), c.Identifier())
	if sub == nil {
		return nil, types.ErrNotSubscribed
	}
	policy := types.ResolvePolicy(c.GetPolicy())
	return policy.SubscriberPermissions(sub.Grants, sub.Vetos), nil
}
