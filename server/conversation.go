/******************************************************************************
 *
 *  Lifecycle manager, conversation variant.
 *
 *  Conversations are restricted contexts with a bounded participant list.
 *  Their policy is fixed at creation: members read and write, joining is
 *  owner-controlled, leaving is free.
 *
 *****************************************************************************/

package main

import (
	"github.com/agoranet/agora/server/logs"
	"github.com/agoranet/agora/server/store"
	"github.com/agoranet/agora/server/store/types"
)

// conversationPolicy is assigned to every new conversation.
func conversationPolicy() types.Policy {
	return types.Policy{
		types.PermRead:        types.ModeSubscribed,
		types.PermWrite:       types.ModeSubscribed,
		types.PermSubscribe:   types.ModeRestricted,
		types.PermUnsubscribe: types.ModePublic,
	}
}

// createConversation builds a conversation owned by the creator, subscribes
// every initial participant and records a subscribe activity for each. The
// creator must be on the participant list.
func createConversation(creator *types.User, displayName string, participants []types.Participant) (*types.Conversation, error) {
	if len(participants) == 0 {
		return nil, types.ErrMalformed
	}
	if len(participants) > globals.maxParticipants {
		return nil, types.ErrPermissionDenied
	}

	var creatorListed bool
	for _, p := range participants {
		if p.Username == creator.Username {
			creatorListed = true
			break
		}
	}
	if !creatorListed {
		return nil, types.ErrMalformed
	}

	conv := &types.Conversation{
		DisplayName:  displayName,
		Tags:         []string{},
		Policy:       conversationPolicy(),
		Participants: participants,
		Owner:        creator.Username,
		Creator:      creator.Username,
	}
	conv.RecomputeTags()

	if err := store.Conversations.Create(conv); err != nil {
		return nil, err
	}

	obs := observerFor(types.KindConversation)
	obs.AfterCreate(conv)

	for _, p := range participants {
		user, err := store.Users.Get(p.Username)
		if err != nil {
			return nil, err
		}
		if _, err = subscribe(conv, user, obs); err != nil {
			return nil, err
		}
	}

	return conv, nil
}

// joinConversation adds the actor to the conversation's participant list and
// subscribes them. Restricted conversations only accept participants added
// by their owner.
func joinConversation(conv *types.Conversation, actor *types.User, requester string) (*types.Subscription, error) {
	if actor.Membership(types.KindConversation, conv.Id) != nil {
		return nil, types.ErrDuplicate
	}
	if len(conv.Participants) >= globals.maxParticipants {
		return nil, types.ErrPermissionDenied
	}
	policy := types.ResolvePolicy(conv.Policy)
	if policy[types.PermSubscribe] == types.ModeRestricted && conv.Owner != requester {
		return nil, types.ErrUnauthorized
	}

	conv.AddParticipant(types.NewParticipant(actor.Username, actor.DisplayName))
	if err := store.Conversations.Update(conv.Id, map[string]interface{}{
		"participants": conv.Participants,
	}); err != nil {
		return nil, err
	}

	sub, err := subscribe(conv, actor, observerFor(types.KindConversation))
	if err != nil {
		return nil, err
	}

	// Everyone already in the conversation sees the grown participant list.
	for _, e := range updateSubscriberCopies(conv, fieldSet{fldParticipants: true}, false) {
		logs.Warning.Println("joinConversation:", e)
	}

	return sub, nil
}

// leaveConversation removes the actor from the conversation. Participants
// leave freely; only the owner can force someone else out, and the owner
// cannot leave at all.
func leaveConversation(conv *types.Conversation, actor *types.User, requester string) error {
	if requester != actor.Username && requester != conv.Owner {
		return types.ErrUnauthorized
	}
	return unsubscribe(conv, actor, observerFor(types.KindConversation))
}
