// Package adapter contains the interfaces to be implemented by the database adapter.
package adapter

import (
	"encoding/json"

	t "github.com/agoranet/agora/server/store/types"
)

// Adapter is the interface that must be implemented by a database adapter.
// The current schema supports a single connection by database type.
//
// Bulk operations (SubsUpdate, ActivitiesUpdateContext, ActivitiesRemove) are
// filter-matched: the adapter applies each to every matching document in one
// store call, but there is no transaction spanning collections.
type Adapter interface {
	// General

	// Open and configure the adapter.
	Open(config json.RawMessage) error
	// Close the adapter.
	Close() error
	// IsOpen checks if the adapter is ready for use.
	IsOpen() bool
	// GetDbVersion returns current database version.
	GetDbVersion() (int, error)
	// CheckDbVersion checks if the actual database version matches adapter version.
	CheckDbVersion() error
	// GetName returns the name of the adapter.
	GetName() string
	// Version returns adapter version.
	Version() int
	// CreateDb creates the database optionally dropping an existing database first.
	CreateDb(reset bool) error
	// Stats returns a db connection stats object.
	Stats() interface{}

	// Canonical contexts

	// ContextCreate inserts a canonical context record.
	ContextCreate(ctx *t.Context) error
	// ContextGet loads a context by its hash. Returns ErrNotFound if absent.
	ContextGet(hash string) (*t.Context, error)
	// ContextsAll loads every canonical context.
	ContextsAll() ([]t.Context, error)
	// ContextUpdate applies a partial update to a single context.
	ContextUpdate(hash string, update map[string]interface{}) error
	// ContextDelete removes a canonical context record.
	ContextDelete(hash string) error

	// Canonical conversations

	// ConversationCreate inserts a canonical conversation record.
	ConversationCreate(conv *t.Conversation) error
	// ConversationGet loads a conversation by id. Returns ErrNotFound if absent.
	ConversationGet(id string) (*t.Conversation, error)
	// ConversationsAll loads every canonical conversation.
	ConversationsAll() ([]t.Conversation, error)
	// ConversationUpdate applies a partial update to a single conversation.
	ConversationUpdate(id string, update map[string]interface{}) error
	// ConversationDelete removes a canonical conversation record.
	ConversationDelete(id string) error

	// Users and membership arrays

	// UserCreate inserts a user record.
	UserCreate(user *t.User) error
	// UserGet loads a user by username. Returns ErrNotFound if absent.
	UserGet(username string) (*t.User, error)
	// UserUpdate applies a partial update to a user record.
	UserUpdate(username string, update map[string]interface{}) error
	// UsersAll loads every user record.
	UsersAll() ([]t.User, error)
	// UsersForMember loads all users whose membership array of the given
	// kind references the identifier.
	UsersForMember(kind t.MembershipKind, ident string) ([]t.User, error)
	// UsersWithMemberships loads all users having at least one membership
	// entry of the given kind.
	UsersWithMemberships(kind t.MembershipKind) ([]t.User, error)
	// SubsAdd appends a membership entry to a user's array.
	SubsAdd(username string, kind t.MembershipKind, sub *t.Subscription) error
	// SubsRemove deletes the membership entry referencing the identifier.
	SubsRemove(username string, kind t.MembershipKind, ident string) error
	// SubsUpdate applies a field-level update to the matching membership
	// array element. Keys are snapshot field names (displayName, tags, url,
	// hash, notifications, participants, permissions).
	SubsUpdate(username string, kind t.MembershipKind, ident string, update map[string]interface{}) error
	// SubsClearLegacyOverrides removes retired override fields from the
	// matching membership array element.
	SubsClearLegacyOverrides(username string, kind t.MembershipKind, ident string) error

	// Activities

	// ActivityInsert saves an activity document.
	ActivityInsert(kind t.MembershipKind, act *t.Activity) error
	// ActivitiesUpdateContext applies a field-level update to the matching
	// element of the contexts array of every activity referencing the
	// identifier. Keys are snapshot field names.
	ActivitiesUpdateContext(kind t.MembershipKind, ident string, update map[string]interface{}) error
	// ActivitiesRetargetActor rewrites the object url/hash of activities
	// whose actor is the given user and whose object still points at the
	// old URL.
	ActivitiesRetargetActor(username, oldURL, newURL, newHash string) error
	// ActivitiesRemove deletes all activities referencing the identifier.
	// With soft=true the documents are only marked deleted.
	ActivitiesRemove(kind t.MembershipKind, ident string, soft bool) error
}
