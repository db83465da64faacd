// Package types contains the objects stored in the database and shared between packages.
package types

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// StoreError satisfies error interface but allows constant values for
// direct comparison.
type StoreError string

// Error is required by error interface.
func (s StoreError) Error() string {
	return string(s)
}

const (
	// ErrInternal means DB or other internal failure.
	ErrInternal = StoreError("internal")
	// ErrMalformed means the input is malformed, e.g. a context without a URL.
	ErrMalformed = StoreError("malformed")
	// ErrNotFound means the requested canonical object is not found.
	ErrNotFound = StoreError("not found")
	// ErrDuplicate means the membership entry already exists.
	ErrDuplicate = StoreError("duplicate")
	// ErrNotSubscribed means the membership entry does not exist.
	ErrNotSubscribed = StoreError("not subscribed")
	// ErrPermissionDenied means the operation is not permitted by lifecycle rules.
	ErrPermissionDenied = StoreError("denied")
	// ErrUnauthorized means the caller lacks the required computed permission.
	ErrUnauthorized = StoreError("unauthorized")
	// ErrUnresolvable means an identifier cannot be derived yet (no URL).
	ErrUnresolvable = StoreError("unresolvable")
	// ErrDrift means a denormalized copy references a canonical object which
	// no longer exists. Raised during maintenance only, never returned to
	// request callers.
	ErrDrift = StoreError("drift")
)

// TimeNow returns current wall time in UTC rounded to milliseconds.
func TimeNow() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}

// Permission is a single named capability granted to a subscriber.
type Permission string

// All permissions known to the system.
const (
	PermRead        Permission = "read"
	PermWrite       Permission = "write"
	PermSubscribe   Permission = "subscribe"
	PermInvite      Permission = "invite"
	PermUnsubscribe Permission = "unsubscribe"
	PermDelete      Permission = "delete"
)

// PolicyMode defines who gets a permission: everyone, subscribers only, or
// nobody without an explicit grant.
type PolicyMode string

// Valid policy modes.
const (
	ModePublic     PolicyMode = "public"
	ModeSubscribed PolicyMode = "subscribed"
	ModeRestricted PolicyMode = "restricted"
)

// Policy maps an action to the mode which controls it.
type Policy map[Permission]PolicyMode

// DefaultPolicy is the system-wide fallback for actions absent from a
// context's policy.
var DefaultPolicy = Policy{
	PermRead:      ModePublic,
	PermWrite:     ModePublic,
	PermSubscribe: ModePublic,
	PermInvite:    ModeRestricted,
	PermDelete:    ModeRestricted,
}

// ResolvePolicy normalizes a raw policy into a complete one: every action is
// present, with absent actions filled from DefaultPolicy. The 'unsubscribe'
// action, when absent, inherits the 'subscribe' mode. Idempotent.
func ResolvePolicy(raw Policy) Policy {
	resolved := make(Policy, len(DefaultPolicy)+1)
	for perm, mode := range DefaultPolicy {
		resolved[perm] = mode
	}
	for perm, mode := range raw {
		resolved[perm] = mode
	}
	if _, ok := raw[PermUnsubscribe]; !ok {
		resolved[PermUnsubscribe] = resolved[PermSubscribe]
	}
	return resolved
}

// SubscriberPermissions computes the effective permission set of a single
// subscriber from the policy plus the subscriber's persistent overrides.
// Grants are added to the computed set, vetos are removed from it, a
// permission present in both lists stays granted. The result is sorted and
// deduplicated.
func (p Policy) SubscriberPermissions(grants, vetos []Permission) []Permission {
	resolved := ResolvePolicy(p)

	set := make(map[Permission]bool)
	if mode := resolved[PermRead]; mode == ModeSubscribed || mode == ModePublic {
		set[PermRead] = true
	}
	if mode := resolved[PermWrite]; mode == ModeSubscribed || mode == ModePublic {
		set[PermWrite] = true
	}
	if resolved[PermInvite] == ModeSubscribed {
		set[PermInvite] = true
	}
	if resolved[PermUnsubscribe] == ModePublic {
		set[PermUnsubscribe] = true
	}
	if resolved[PermDelete] == ModeSubscribed {
		set[PermDelete] = true
	}

	for _, perm := range grants {
		set[perm] = true
	}
	for _, perm := range vetos {
		if !permIn(grants, perm) {
			delete(set, perm)
		}
	}

	result := make([]Permission, 0, len(set))
	for perm := range set {
		result = append(result, perm)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func permIn(list []Permission, perm Permission) bool {
	for _, p := range list {
		if p == perm {
			return true
		}
	}
	return false
}

// ContextHash derives the canonical identifier of a URL-bearing context.
// An empty URL yields an empty string which must never be persisted as a
// real identifier.
func ContextHash(url string) string {
	if url == "" {
		return ""
	}
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// MembershipKind distinguishes the two membership storages kept on a user
// document: context subscriptions and conversation memberships.
type MembershipKind int

// Membership kinds.
const (
	KindContext MembershipKind = iota
	KindConversation
)

func (k MembershipKind) String() string {
	if k == KindConversation {
		return "conversation"
	}
	return "context"
}

// Participant is a single member of a conversation.
// Ancient documents stored participants as plain username strings; those are
// decoded into the structured form with the legacy marker set, to be migrated
// by maintenance.
type Participant struct {
	Username    string `bson:"username" json:"username"`
	DisplayName string `bson:"displayName" json:"displayName"`
	ObjectType  string `bson:"objectType" json:"objectType"`

	legacy bool
}

// NewParticipant builds a structured participant record for a person.
func NewParticipant(username, displayName string) Participant {
	if displayName == "" {
		displayName = username
	}
	return Participant{Username: username, DisplayName: displayName, ObjectType: "person"}
}

// IsLegacy reports whether this participant was decoded from the ancient
// plain-string representation.
func (p *Participant) IsLegacy() bool {
	return p.legacy
}

// UnmarshalBSONValue accepts both the structured form and the ancient plain
// username string.
func (p *Participant) UnmarshalBSONValue(bt bsontype.Type, data []byte) error {
	if bt == bsontype.String {
		rv := bson.RawValue{Type: bt, Value: data}
		name, ok := rv.StringValueOK()
		if !ok {
			return ErrMalformed
		}
		*p = Participant{Username: name, DisplayName: name, ObjectType: "person", legacy: true}
		return nil
	}

	var decoded struct {
		Username    string `bson:"username"`
		DisplayName string `bson:"displayName"`
		ObjectType  string `bson:"objectType"`
	}
	if err := bson.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Participant{Username: decoded.Username, DisplayName: decoded.DisplayName, ObjectType: decoded.ObjectType}
	return nil
}

// Subscription is the denormalized snapshot of a context or conversation
// embedded in a user document. Permissions is the computed effective set;
// Grants and Vetos are the persistent per-subscriber overrides which survive
// policy changes.
type Subscription struct {
	ObjectType  string   `bson:"objectType" json:"objectType"`
	Id          string   `bson:"id,omitempty" json:"id,omitempty"`
	Hash        string   `bson:"hash,omitempty" json:"hash,omitempty"`
	URL         string   `bson:"url,omitempty" json:"url,omitempty"`
	DisplayName string   `bson:"displayName" json:"displayName"`
	Tags        []string `bson:"tags,omitempty" json:"tags,omitempty"`

	Notifications bool          `bson:"notifications,omitempty" json:"notifications,omitempty"`
	Participants  []Participant `bson:"participants,omitempty" json:"participants,omitempty"`

	Permissions []Permission `bson:"permissions" json:"permissions"`
	Grants      []Permission `bson:"_grants,omitempty" json:"-"`
	Vetos       []Permission `bson:"_vetos,omitempty" json:"-"`

	// Override lists under their retired field names, kept only until
	// maintenance strips them.
	LegacyGrants []Permission `bson:"grants,omitempty" json:"-"`
	LegacyVetos  []Permission `bson:"vetos,omitempty" json:"-"`
}

// Identifier returns the identifier of the referenced canonical object.
func (s *Subscription) Identifier() string {
	if s.Id != "" {
		return s.Id
	}
	return s.Hash
}

// HasLegacyOverrides reports whether retired override fields are still present.
func (s *Subscription) HasLegacyOverrides() bool {
	return len(s.LegacyGrants) > 0 || len(s.LegacyVetos) > 0
}

// HasLegacyParticipants reports whether any participant was decoded from the
// ancient plain-string form.
func (s *Subscription) HasLegacyParticipants() bool {
	for i := range s.Participants {
		if s.Participants[i].legacy {
			return true
		}
	}
	return false
}

// Canonical is the authoritative context or conversation document as seen by
// the propagation engine and the lifecycle manager.
type Canonical interface {
	// Kind tells which membership storage and activity collection the
	// denormalized copies live in.
	Kind() MembershipKind
	// Identifier returns the current canonical identifier. Empty means not
	// yet resolvable.
	Identifier() string
	// PreviousIdentifier returns the identifier held before a pending URL
	// change, or the current one if no change is pending.
	PreviousIdentifier() string
	// GetObjectType returns the wire object type of the canonical entity.
	GetObjectType() string
	// GetDisplayName returns the display name.
	GetDisplayName() string
	// GetTags returns the tag set.
	GetTags() []string
	// GetURL returns the context URL, empty for conversations.
	GetURL() string
	// GetPolicy returns the raw permission policy.
	GetPolicy() Policy
	// GetParticipants returns the participant list, nil for plain contexts.
	GetParticipants() []Participant
	// GetOwner returns the owner username.
	GetOwner() string
	// NotificationsEnabled reports whether delivery bindings are maintained
	// for subscribers.
	NotificationsEnabled() bool
	// NewSubscription builds a fresh denormalized snapshot for a new
	// subscriber with permissions computed from the policy alone.
	NewSubscription() *Subscription
}

// Context is a URL-addressed canonical shared context.
type Context struct {
	Hash        string   `bson:"hash" json:"hash"`
	URL         string   `bson:"url" json:"url"`
	DisplayName string   `bson:"displayName" json:"displayName"`
	Tags        []string `bson:"tags" json:"tags"`
	Policy      Policy   `bson:"permissions" json:"permissions"`

	Notifications bool `bson:"notifications" json:"notifications"`

	Owner     string    `bson:"_owner" json:"owner"`
	Creator   string    `bson:"_creator" json:"creator"`
	Published time.Time `bson:"published" json:"published"`

	// Optional direct-upload endpoint, never copied into snapshots.
	UploadURL string `bson:"uploadURL,omitempty" json:"uploadURL,omitempty"`

	prevHash string
	prevURL  string
}

// Kind implements Canonical.
func (c *Context) Kind() MembershipKind { return KindContext }

// GetObjectType implements Canonical.
func (c *Context) GetObjectType() string { return "context" }

// GetDisplayName implements Canonical.
func (c *Context) GetDisplayName() string { return c.DisplayName }

// GetTags implements Canonical.
func (c *Context) GetTags() []string { return c.Tags }

// GetURL implements Canonical.
func (c *Context) GetURL() string { return c.URL }

// GetPolicy implements Canonical.
func (c *Context) GetPolicy() Policy { return c.Policy }

// GetParticipants implements Canonical.
func (c *Context) GetParticipants() []Participant { return nil }

// GetOwner implements Canonical.
func (c *Context) GetOwner() string { return c.Owner }

// NotificationsEnabled implements Canonical.
func (c *Context) NotificationsEnabled() bool { return c.Notifications }

// Identifier resolves the canonical identifier: the stored hash, or the hash
// of the URL if the stored one is missing. Empty result means the context is
// not yet resolvable.
func (c *Context) Identifier() string {
	if c.Hash != "" {
		return c.Hash
	}
	return ContextHash(c.URL)
}

// PreviousIdentifier returns the identifier held before a pending URL change.
// It stays resolvable until the next propagation pass retargets historical
// activity references.
func (c *Context) PreviousIdentifier() string {
	if c.prevHash != "" {
		return c.prevHash
	}
	return c.Identifier()
}

// PreviousURL returns the URL held before a pending change, or the current
// one if none is pending.
func (c *Context) PreviousURL() string {
	if c.prevURL != "" {
		return c.prevURL
	}
	return c.URL
}

// URLChangePending reports whether the context carries an unpropagated URL
// change.
func (c *Context) URLChangePending() bool {
	return c.prevURL != "" && c.prevURL != c.URL
}

// SetURL changes the context URL, recomputes the hash, and records the old
// identity so historical references can be retargeted.
func (c *Context) SetURL(url string) {
	if url == c.URL {
		return
	}
	c.prevHash = c.Identifier()
	c.prevURL = c.URL
	c.URL = url
	c.Hash = ContextHash(url)
}

// NewSubscription implements Canonical. Owner, creator, publication date and
// upload endpoint are deliberately not copied into the snapshot.
func (c *Context) NewSubscription() *Subscription {
	return &Subscription{
		ObjectType:    "context",
		Hash:          c.Identifier(),
		URL:           c.URL,
		DisplayName:   c.DisplayName,
		Tags:          append([]string(nil), c.Tags...),
		Notifications: c.Notifications,
		Permissions:   c.Policy.SubscriberPermissions(nil, nil),
	}
}

// ContextFromSubscription synthesizes a transient context value from a
// subscriber copy. Used by maintenance to drive the unsubscribe path for
// copies whose canonical object no longer exists.
func ContextFromSubscription(sub *Subscription) *Context {
	return &Context{
		Hash:        sub.Hash,
		URL:         sub.URL,
		DisplayName: sub.DisplayName,
		Tags:        append([]string(nil), sub.Tags...),
	}
}

// Conversation is a private canonical context with a store-assigned
// identifier and a bounded participant list.
type Conversation struct {
	Id          string   `bson:"_id" json:"id"`
	DisplayName string   `bson:"displayName" json:"displayName"`
	Tags        []string `bson:"tags" json:"tags"`
	Policy      Policy   `bson:"permissions" json:"permissions"`

	Participants []Participant `bson:"participants" json:"participants"`

	Owner     string    `bson:"_owner" json:"owner"`
	Creator   string    `bson:"_creator" json:"creator"`
	Published time.Time `bson:"published" json:"published"`
}

// Kind implements Canonical.
func (c *Conversation) Kind() MembershipKind { return KindConversation }

// GetObjectType implements Canonical.
func (c *Conversation) GetObjectType() string { return "conversation" }

// GetDisplayName implements Canonical.
func (c *Conversation) GetDisplayName() string { return c.DisplayName }

// GetTags implements Canonical.
func (c *Conversation) GetTags() []string { return c.Tags }

// GetURL implements Canonical.
func (c *Conversation) GetURL() string { return "" }

// GetPolicy implements Canonical.
func (c *Conversation) GetPolicy() Policy { return c.Policy }

// GetParticipants implements Canonical.
func (c *Conversation) GetParticipants() []Participant { return c.Participants }

// GetOwner implements Canonical.
func (c *Conversation) GetOwner() string { return c.Owner }

// NotificationsEnabled implements Canonical. Conversation members always get
// delivery bindings.
func (c *Conversation) NotificationsEnabled() bool { return true }

// Identifier implements Canonical. Conversation identifiers are assigned by
// the store and never recomputed.
func (c *Conversation) Identifier() string { return c.Id }

// PreviousIdentifier implements Canonical.
func (c *Conversation) PreviousIdentifier() string { return c.Id }

// NewSubscription implements Canonical.
func (c *Conversation) NewSubscription() *Subscription {
	return &Subscription{
		ObjectType:   "conversation",
		Id:           c.Id,
		DisplayName:  c.DisplayName,
		Tags:         append([]string(nil), c.Tags...),
		Participants: append([]Participant(nil), c.Participants...),
		Permissions:  c.Policy.SubscriberPermissions(nil, nil),
	}
}

// ConversationFromSubscription synthesizes a transient conversation value
// from a subscriber copy, for the maintenance unsubscribe path.
func ConversationFromSubscription(sub *Subscription) *Conversation {
	return &Conversation{
		Id:           sub.Id,
		DisplayName:  sub.DisplayName,
		Tags:         append([]string(nil), sub.Tags...),
		Participants: append([]Participant(nil), sub.Participants...),
	}
}

// HasParticipant reports whether the username is in the participant list.
func (c *Conversation) HasParticipant(username string) bool {
	for i := range c.Participants {
		if c.Participants[i].Username == username {
			return true
		}
	}
	return false
}

// AddParticipant appends a participant if not already present.
func (c *Conversation) AddParticipant(p Participant) {
	if !c.HasParticipant(p.Username) {
		c.Participants = append(c.Participants, p)
	}
}

// RemoveParticipant deletes the named participant from the list.
func (c *Conversation) RemoveParticipant(username string) {
	kept := c.Participants[:0]
	for _, p := range c.Participants {
		if p.Username != username {
			kept = append(kept, p)
		}
	}
	c.Participants = kept
}

// HasLegacyParticipants reports whether the participant list still uses the
// ancient plain-string shape.
func (c *Conversation) HasLegacyParticipants() bool {
	for i := range c.Participants {
		if c.Participants[i].legacy {
			return true
		}
	}
	return false
}

// MigrateParticipants rewrites ancient plain-string participants into the
// structured form. Returns true if anything changed.
func (c *Conversation) MigrateParticipants() bool {
	changed := false
	for i := range c.Participants {
		if c.Participants[i].legacy {
			c.Participants[i].legacy = false
			c.Participants[i].ObjectType = "person"
			if c.Participants[i].DisplayName == "" {
				c.Participants[i].DisplayName = c.Participants[i].Username
			}
			changed = true
		}
	}
	return changed
}

// RecomputeTags derives lifecycle tags from the participant count: fewer than
// two participants makes an archived group, more than two a group, exactly
// two is an ordinary two-person conversation signalled by the absence of
// tags. An archive tag already present on a two-person conversation is kept.
func (c *Conversation) RecomputeTags() {
	archived := false
	for _, tag := range c.Tags {
		if tag == "archive" {
			archived = true
			break
		}
	}

	switch {
	case len(c.Participants) < 2:
		c.Tags = []string{"archive", "group"}
	case len(c.Participants) > 2:
		c.Tags = []string{"group"}
	case archived:
		c.Tags = []string{"archive"}
	default:
		c.Tags = []string{}
	}
}

// ActivityActor identifies who performed an activity.
type ActivityActor struct {
	Username    string `bson:"username" json:"username"`
	DisplayName string `bson:"displayName,omitempty" json:"displayName,omitempty"`
	ObjectType  string `bson:"objectType" json:"objectType"`
}

// ActivityObject is the object of an activity. For subscription events it
// references the context or conversation acted upon.
type ActivityObject struct {
	ObjectType   string        `bson:"objectType" json:"objectType"`
	Content      string        `bson:"content,omitempty" json:"content,omitempty"`
	URL          string        `bson:"url,omitempty" json:"url,omitempty"`
	Hash         string        `bson:"hash,omitempty" json:"hash,omitempty"`
	Id           string        `bson:"id,omitempty" json:"id,omitempty"`
	Participants []Participant `bson:"participants,omitempty" json:"participants,omitempty"`
}

// ActivitySnapshot is the flattened copy of a context carried by each
// activity posted to it. Permissions are never part of it.
type ActivitySnapshot struct {
	ObjectType  string   `bson:"objectType" json:"objectType"`
	Hash        string   `bson:"hash,omitempty" json:"hash,omitempty"`
	Id          string   `bson:"id,omitempty" json:"id,omitempty"`
	URL         string   `bson:"url,omitempty" json:"url,omitempty"`
	DisplayName string   `bson:"displayName,omitempty" json:"displayName,omitempty"`
	Tags        []string `bson:"tags,omitempty" json:"tags,omitempty"`
}

// Identifier returns the identifier of the referenced canonical object.
func (s *ActivitySnapshot) Identifier() string {
	if s.Id != "" {
		return s.Id
	}
	return s.Hash
}

// SnapshotOf builds an activity snapshot of a canonical entity.
func SnapshotOf(c Canonical) ActivitySnapshot {
	snap := ActivitySnapshot{
		ObjectType:  c.GetObjectType(),
		URL:         c.GetURL(),
		DisplayName: c.GetDisplayName(),
		Tags:        append([]string(nil), c.GetTags()...),
	}
	if c.Kind() == KindConversation {
		snap.Id = c.Identifier()
	} else {
		snap.Hash = c.Identifier()
	}
	return snap
}

// Activity is a stored activity document: a post, a comment, or a
// subscription event.
type Activity struct {
	Id        string    `bson:"_id" json:"id"`
	Verb      string    `bson:"verb" json:"verb"`
	Published time.Time `bson:"published" json:"published"`

	Actor    ActivityActor      `bson:"actor" json:"actor"`
	Object   ActivityObject     `bson:"object" json:"object"`
	Contexts []ActivitySnapshot `bson:"contexts,omitempty" json:"contexts,omitempty"`

	// Logical deletion marker. Soft-removed activities stay in the
	// collection but are not visible.
	Deleted   bool       `bson:"deleted,omitempty" json:"-"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"-"`
}

// User is a stored person document. Each membership is a flattened snapshot
// of the canonical entity; the canonical side keeps no subscriber list.
type User struct {
	Username    string    `bson:"username" json:"username"`
	DisplayName string    `bson:"displayName" json:"displayName"`
	Owner       string    `bson:"_owner" json:"owner"`
	Published   time.Time `bson:"published" json:"published"`

	SubscribedTo []Subscription `bson:"subscribedTo,omitempty" json:"subscribedTo,omitempty"`
	TalkingIn    []Subscription `bson:"talkingIn,omitempty" json:"talkingIn,omitempty"`
}

// Memberships returns the membership array of the given kind.
func (u *User) Memberships(kind MembershipKind) []Subscription {
	if kind == KindConversation {
		return u.TalkingIn
	}
	return u.SubscribedTo
}

// Membership finds the membership entry referencing the given identifier,
// nil if absent.
func (u *User) Membership(kind MembershipKind, ident string) *Subscription {
	subs := u.Memberships(kind)
	for i := range subs {
		if subs[i].Identifier() == ident {
			return &subs[i]
		}
	}
	return nil
}
