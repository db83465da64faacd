/******************************************************************************
 *
 *  Propagation engine.
 *
 *  Canonical entities keep no subscriber list; every subscriber and every
 *  activity holds a flattened copy instead. After a canonical change these
 *  functions fan the changed fields out to the copies. On a URL change the
 *  copies are located by the identifier they still carry, i.e. the one from
 *  before the change.
 *
 *****************************************************************************/

package main

import (
	"fmt"

	"github.com/agoranet/agora/server/logs"
	"github.com/agoranet/agora/server/store"
	"github.com/agoranet/agora/server/store/types"
)

// fieldSet marks which top-level canonical fields an incoming update touched.
type fieldSet map[string]bool

const (
	fldDisplayName   = "displayName"
	fldTags          = "tags"
	fldURL           = "url"
	fldPermissions   = "permissions"
	fldNotifications = "notifications"
	fldParticipants  = "participants"
)

// allFields is the set treated as changed on a forced pass.
func allFields() fieldSet {
	return fieldSet{
		fldDisplayName:   true,
		fldTags:          true,
		fldURL:           true,
		fldPermissions:   true,
		fldNotifications: true,
		fldParticipants:  true,
	}
}

// updateActivityCopies pushes displayName, tags and url+identifier into the
// flattened context snapshot of every activity referencing the entity.
// Permissions never reach activity copies. Safe to call with no matching
// activities.
func updateActivityCopies(c types.Canonical, changed fieldSet, force bool) error {
	if force {
		changed = allFields()
	}
	if !changed[fldDisplayName] && !changed[fldTags] && !changed[fldURL] {
		return nil
	}

	update := map[string]interface{}{}
	if changed[fldDisplayName] {
		update["displayName"] = c.GetDisplayName()
	}
	if changed[fldTags] {
		update["tags"] = c.GetTags()
	}
	if changed[fldURL] && c.Kind() == types.KindContext {
		update["url"] = c.GetURL()
		update["hash"] = c.Identifier()
	}
	if len(update) == 0 {
		return nil
	}

	return store.Activities.UpdateContextCopies(c.Kind(), c.PreviousIdentifier(), update)
}

// updateSubscriberCopies rebuilds the changed fields of every subscriber's
// membership entry. Permission changes are recomputed per subscriber from
// the new policy and that subscriber's stored overrides; the overrides
// themselves are never touched. Each subscriber is an independent write:
// one failure is recorded and the fan-out continues.
func updateSubscriberCopies(c types.Canonical, changed fieldSet, force bool) []error {
	if force {
		changed = allFields()
	}

	var touched bool
	for f := range changed {
		if changed[f] {
			touched = true
			break
		}
	}
	if !touched {
		return nil
	}

	prevIdent := c.PreviousIdentifier()
	users, err := store.Users.ForMember(c.Kind(), prevIdent)
	if err != nil {
		return []error{fmt.Errorf("propagate: loading subscribers of %s: %w", prevIdent, err)}
	}

	ctx, _ := c.(*types.Context)
	urlChanged := changed[fldURL] && ctx != nil && ctx.URLChangePending()
	policy := types.ResolvePolicy(c.GetPolicy())

	var errs []error
	for i := range users {
		user := &users[i]
		update := map[string]interface{}{}

		if changed[fldURL] && c.Kind() == types.KindContext {
			update["url"] = c.GetURL()
			update["hash"] = c.Identifier()
		}
		if changed[fldDisplayName] {
			update["displayName"] = c.GetDisplayName()
		}
		if changed[fldTags] {
			update["tags"] = c.GetTags()
		}
		if changed[fldNotifications] {
			update["notifications"] = c.NotificationsEnabled()
		}
		if changed[fldParticipants] && c.Kind() == types.KindConversation {
			update["participants"] = c.GetParticipants()
		}
		if changed[fldPermissions] {
			sub := user.Membership(c.Kind(), prevIdent)
			var grants, vetos []types.Permission
			if sub != nil {
				grants, vetos = sub.Grants, sub.Vetos
			}
			update["permissions"] = policy.SubscriberPermissions(grants, vetos)
		}

		if len(update) > 0 {
			if err := store.Users.UpdateSubscription(user.Username, c.Kind(), prevIdent, update); err != nil {
				logs.Warning.Println("propagate: subscriber", user.Username, "of", prevIdent, err)
				errs = append(errs, fmt.Errorf("propagate: subscriber %s of %s: %w", user.Username, prevIdent, err))
				continue
			}
		}

		// Activities posted by this user referencing the entity by its old
		// URL must follow the rename.
		if urlChanged {
			if err := store.Activities.RetargetActor(user.Username, ctx.PreviousURL(), c.GetURL(), c.Identifier()); err != nil {
				logs.Warning.Println("propagate: retarget activities of", user.Username, err)
				errs = append(errs, fmt.Errorf("propagate: retarget activities of %s: %w", user.Username, err))
			}
		}
	}

	return errs
}
