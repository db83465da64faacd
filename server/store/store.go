// Package store provides methods for registering and accessing database adapters.
package store

import (
	"encoding/json"
	"errors"

	adapter "github.com/agoranet/agora/server/db"
	"github.com/agoranet/agora/server/store/types"
)

var adp adapter.Adapter
var availableAdapters = make(map[string]adapter.Adapter)

// Unique ID generator
var uGen types.UidGenerator

type configType struct {
	// 16-byte key for XTEA. Used to initialize types.UidGenerator.
	UidKey []byte `json:"uid_key"`
	// DB adapter name to use. Should be one of those specified in `Adapters`.
	UseAdapter string `json:"use_adapter"`
	// Configurations for individual adapters.
	Adapters map[string]json.RawMessage `json:"adapters"`
}

func openAdapter(workerId int, jsonconf json.RawMessage) error {
	var config configType
	if err := json.Unmarshal(jsonconf, &config); err != nil {
		return errors.New("store: failed to parse config: " + err.Error() + "(" + string(jsonconf) + ")")
	}

	if adp == nil {
		if len(config.UseAdapter) > 0 {
			// Adapter name specified explicitly.
			if ad, ok := availableAdapters[config.UseAdapter]; ok {
				adp = ad
			} else {
				return errors.New("store: " + config.UseAdapter + " adapter is not available in this binary")
			}
		} else if len(availableAdapters) == 1 {
			// Default to the only entry in availableAdapters.
			for _, v := range availableAdapters {
				adp = v
			}
		} else {
			return errors.New("store: db adapter is not specified. Please set `store_config.use_adapter` in the config file")
		}
	}

	if adp.IsOpen() {
		return errors.New("store: connection is already opened")
	}

	// Initialize snowflake.
	if workerId < 0 || workerId > 1023 {
		return errors.New("store: invalid worker ID")
	}

	if err := uGen.Init(uint(workerId), config.UidKey); err != nil {
		return errors.New("store: failed to init snowflake: " + err.Error())
	}

	var adapterConfig json.RawMessage
	if config.Adapters != nil {
		adapterConfig = config.Adapters[adp.GetName()]
	}

	return adp.Open(adapterConfig)
}

// PersistentStorageInterface defines methods used for interaction with
// persistent storage.
type PersistentStorageInterface interface {
	Open(workerId int, jsonconf json.RawMessage) error
	Close() error
	IsOpen() bool
	GetAdapterName() string
	GetAdapterVersion() int
	GetDbVersion() int
	InitDb(jsonconf json.RawMessage, reset bool) error
	GetUid() string
	DbStats() func() interface{}
}

// Store is the main object for interacting with persistent storage.
var Store PersistentStorageInterface

type storeObj struct{}

// Open initializes the persistence system. Adapter holds a connection pool
// for a database instance.
//
//	workerId - id of this worker to initialize the unique ID generator
//	jsonconf - configuration string
func (storeObj) Open(workerId int, jsonconf json.RawMessage) error {
	if err := openAdapter(workerId, jsonconf); err != nil {
		return err
	}

	return adp.CheckDbVersion()
}

// Close terminates connection to persistent storage.
func (storeObj) Close() error {
	if adp.IsOpen() {
		return adp.Close()
	}

	return nil
}

// IsOpen checks if persistent storage connection has been initialized.
func (storeObj) IsOpen() bool {
	if adp != nil {
		return adp.IsOpen()
	}

	return false
}

// GetAdapterName returns the name of the current adapter.
func (storeObj) GetAdapterName() string {
	if adp != nil {
		return adp.GetName()
	}

	return ""
}

// GetAdapterVersion returns version of the current adapter.
func (storeObj) GetAdapterVersion() int {
	if adp != nil {
		return adp.Version()
	}

	return -1
}

// GetDbVersion returns version of the underlying database.
func (storeObj) GetDbVersion() int {
	if adp != nil {
		vers, _ := adp.GetDbVersion()
		return vers
	}

	return -1
}

// InitDb creates and configures a new database instance. If 'reset' is true
// it will first attempt to drop an existing database. If jsonconf is nil it
// will assume that the adapter is already open.
func (s storeObj) InitDb(jsonconf json.RawMessage, reset bool) error {
	if !s.IsOpen() {
		if err := openAdapter(1, jsonconf); err != nil {
			return err
		}
	}
	return adp.CreateDb(reset)
}

// RegisterAdapter makes a persistence adapter available.
// If Register is called twice or if the adapter is nil, it panics.
func RegisterAdapter(a adapter.Adapter) {
	if a == nil {
		panic("store: Register adapter is nil")
	}

	adapterName := a.GetName()
	if _, ok := availableAdapters[adapterName]; ok {
		panic("store: adapter '" + adapterName + "' is already registered")
	}
	availableAdapters[adapterName] = a
}

// GetUid generates a unique ID suitable for use as a primary key.
func (storeObj) GetUid() string {
	return uGen.Get()
}

// DbStats returns a callback returning db connection stats object.
func (s storeObj) DbStats() func() interface{} {
	if !s.IsOpen() {
		return nil
	}
	return adp.Stats
}

// ContextsPersistenceInterface is a struct to hold methods for persistence
// mapping for the canonical Context object.
type ContextsPersistenceInterface interface {
	Create(ctx *types.Context) error
	Get(hash string) (*types.Context, error)
	GetAll() ([]types.Context, error)
	Update(hash string, update map[string]interface{}) error
	Delete(hash string) error
}

// ContextsObjMapper is an instance to map context methods to.
type ContextsObjMapper struct{}

// Contexts is the anchor for storing/retrieving canonical Context objects.
var Contexts ContextsPersistenceInterface

// Create inserts a canonical context, deriving its identity from the URL.
// A context without a resolvable identity is rejected.
func (ContextsObjMapper) Create(ctx *types.Context) error {
	if ctx.Identifier() == "" {
		return types.ErrMalformed
	}
	ctx.Hash = ctx.Identifier()
	if ctx.DisplayName == "" {
		ctx.DisplayName = ctx.URL
	}
	if ctx.Published.IsZero() {
		ctx.Published = types.TimeNow()
	}
	if ctx.Owner == "" {
		ctx.Owner = ctx.Creator
	}
	return adp.ContextCreate(ctx)
}

// Get returns a context by its hash.
func (ContextsObjMapper) Get(hash string) (*types.Context, error) {
	return adp.ContextGet(hash)
}

// GetAll returns every canonical context.
func (ContextsObjMapper) GetAll() ([]types.Context, error) {
	return adp.ContextsAll()
}

// Update is a generic context update.
func (ContextsObjMapper) Update(hash string, update map[string]interface{}) error {
	return adp.ContextUpdate(hash, update)
}

// Delete removes the canonical context record only; cascading is the
// caller's job.
func (ContextsObjMapper) Delete(hash string) error {
	return adp.ContextDelete(hash)
}

// ConversationsPersistenceInterface is a struct to hold methods for
// persistence mapping for the canonical Conversation object.
type ConversationsPersistenceInterface interface {
	Create(conv *types.Conversation) error
	Get(id string) (*types.Conversation, error)
	GetAll() ([]types.Conversation, error)
	Update(id string, update map[string]interface{}) error
	Delete(id string) error
}

// ConversationsObjMapper is an instance to map conversation methods to.
type ConversationsObjMapper struct{}

// Conversations is the anchor for storing/retrieving Conversation objects.
var Conversations ConversationsPersistenceInterface

// Create inserts a conversation, assigning a store identifier.
func (ConversationsObjMapper) Create(conv *types.Conversation) error {
	if conv.Id == "" {
		conv.Id = Store.GetUid()
	}
	if conv.Published.IsZero() {
		conv.Published = types.TimeNow()
	}
	if conv.Owner == "" {
		conv.Owner = conv.Creator
	}
	return adp.ConversationCreate(conv)
}

// Get returns a conversation by id.
func (ConversationsObjMapper) Get(id string) (*types.Conversation, error) {
	return adp.ConversationGet(id)
}

// GetAll returns every canonical conversation.
func (ConversationsObjMapper) GetAll() ([]types.Conversation, error) {
	return adp.ConversationsAll()
}

// Update is a generic conversation update.
func (ConversationsObjMapper) Update(id string, update map[string]interface{}) error {
	return adp.ConversationUpdate(id, update)
}

// Delete removes the canonical conversation record only.
func (ConversationsObjMapper) Delete(id string) error {
	return adp.ConversationDelete(id)
}

// UsersPersistenceInterface is a struct to hold methods for persistence
// mapping for the User object and its membership arrays.
type UsersPersistenceInterface interface {
	Create(user *types.User) error
	Get(username string) (*types.User, error)
	Update(username string, update map[string]interface{}) error
	GetAll() ([]types.User, error)
	ForMember(kind types.MembershipKind, ident string) ([]types.User, error)
	WithMemberships(kind types.MembershipKind) ([]types.User, error)
	AddSubscription(username string, kind types.MembershipKind, sub *types.Subscription) error
	RemoveSubscription(username string, kind types.MembershipKind, ident string) error
	UpdateSubscription(username string, kind types.MembershipKind, ident string, update map[string]interface{}) error
	ClearLegacyOverrides(username string, kind types.MembershipKind, ident string) error
}

// UsersObjMapper is an instance to map user methods to.
type UsersObjMapper struct{}

// Users is the anchor for storing/retrieving User objects.
var Users UsersPersistenceInterface

// Create inserts a user record. A user always owns their own document.
func (UsersObjMapper) Create(user *types.User) error {
	if user.Username == "" {
		return types.ErrMalformed
	}
	user.Owner = user.Username
	if user.Published.IsZero() {
		user.Published = types.TimeNow()
	}
	return adp.UserCreate(user)
}

// Get returns a user by username.
func (UsersObjMapper) Get(username string) (*types.User, error) {
	return adp.UserGet(username)
}

// Update is a generic user update.
func (UsersObjMapper) Update(username string, update map[string]interface{}) error {
	return adp.UserUpdate(username, update)
}

// GetAll loads every user record.
func (UsersObjMapper) GetAll() ([]types.User, error) {
	return adp.UsersAll()
}

// ForMember loads the users whose membership array references the identifier.
func (UsersObjMapper) ForMember(kind types.MembershipKind, ident string) ([]types.User, error) {
	return adp.UsersForMember(kind, ident)
}

// WithMemberships loads the users having at least one membership of the kind.
func (UsersObjMapper) WithMemberships(kind types.MembershipKind) ([]types.User, error) {
	return adp.UsersWithMemberships(kind)
}

// AddSubscription appends a membership entry to the user's array.
func (UsersObjMapper) AddSubscription(username string, kind types.MembershipKind, sub *types.Subscription) error {
	return adp.SubsAdd(username, kind, sub)
}

// RemoveSubscription deletes the membership entry referencing the identifier.
func (UsersObjMapper) RemoveSubscription(username string, kind types.MembershipKind, ident string) error {
	return adp.SubsRemove(username, kind, ident)
}

// UpdateSubscription updates fields of the matching membership array element.
func (UsersObjMapper) UpdateSubscription(username string, kind types.MembershipKind, ident string, update map[string]interface{}) error {
	return adp.SubsUpdate(username, kind, ident, update)
}

// ClearLegacyOverrides strips retired override fields from the matching
// membership array element.
func (UsersObjMapper) ClearLegacyOverrides(username string, kind types.MembershipKind, ident string) error {
	return adp.SubsClearLegacyOverrides(username, kind, ident)
}

// ActivitiesPersistenceInterface is a struct to hold methods for persistence
// mapping for the Activity object.
type ActivitiesPersistenceInterface interface {
	Save(kind types.MembershipKind, act *types.Activity) error
	UpdateContextCopies(kind types.MembershipKind, ident string, update map[string]interface{}) error
	RetargetActor(username, oldURL, newURL, newHash string) error
	RemoveForContext(kind types.MembershipKind, ident string, soft bool) error
}

// ActivitiesObjMapper is an instance to map activity methods to.
type ActivitiesObjMapper struct{}

// Activities is the anchor for storing/retrieving Activity objects.
var Activities ActivitiesPersistenceInterface

// Save assigns an id and inserts the activity document.
func (ActivitiesObjMapper) Save(kind types.MembershipKind, act *types.Activity) error {
	if act.Id == "" {
		act.Id = Store.GetUid()
	}
	if act.Published.IsZero() {
		act.Published = types.TimeNow()
	}
	return adp.ActivityInsert(kind, act)
}

// UpdateContextCopies updates the matching flattened context snapshot of
// every activity referencing the identifier.
func (ActivitiesObjMapper) UpdateContextCopies(kind types.MembershipKind, ident string, update map[string]interface{}) error {
	return adp.ActivitiesUpdateContext(kind, ident, update)
}

// RetargetActor rewrites stale actor-object URL references after a context
// URL change.
func (ActivitiesObjMapper) RetargetActor(username, oldURL, newURL, newHash string) error {
	return adp.ActivitiesRetargetActor(username, oldURL, newURL, newHash)
}

// RemoveForContext removes (or logically deletes) every activity referencing
// the identifier.
func (ActivitiesObjMapper) RemoveForContext(kind types.MembershipKind, ident string, soft bool) error {
	return adp.ActivitiesRemove(kind, ident, soft)
}

func init() {
	Store = storeObj{}
	Contexts = ContextsObjMapper{}
	Conversations = ConversationsObjMapper{}
	Users = UsersObjMapper{}
	Activities = ActivitiesObjMapper{}
}
