package activity

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-audit/pkg/types"
	opts "github.com/goliatone/go-options"
)

const (
	catalogKeyActor        = "actor"
	catalogKeyActionPrefix = "action:"
	catalogKeyEntityPrefix = "entity:"

	catalogScopeSystem = "system"
	catalogScopeHost   = "host"
)

// MessageCatalog holds the phrases used to compose formatted messages.
type MessageCatalog struct {
	actor    string
	actions  map[types.ActivityAction]string
	entities map[types.EntityType]string
}

// CatalogOverrides replaces individual phrases of the default catalog. Empty
// values and unknown enum members are ignored.
type CatalogOverrides struct {
	ActorPlaceholder string
	Actions          map[types.ActivityAction]string
	Entities         map[types.EntityType]string
}

// DefaultCatalog returns the built-in pt-BR catalog.
func DefaultCatalog() MessageCatalog {
	catalog, _ := catalogFromValues(defaultCatalogValues())
	return catalog
}

// NewCatalog layers host overrides above the default phrases with go-options.
// Host values win key by key.
func NewCatalog(overrides CatalogOverrides) (MessageCatalog, error) {
	system := opts.NewScope(catalogScopeSystem, opts.ScopePrioritySystem,
		opts.WithScopeLabel("Built-in phrases"))
	host := opts.NewScope(catalogScopeHost, opts.ScopePriorityTenant,
		opts.WithScopeLabel("Host overrides"),
		opts.WithScopeMetadata(map[string]any{"keys": len(overrides.Actions) + len(overrides.Entities)}))

	stack, err := opts.NewStack(
		opts.NewLayer(system, defaultCatalogValues(), opts.WithSnapshotID[map[string]any](system.Name)),
		opts.NewLayer(host, overrideValues(overrides), opts.WithSnapshotID[map[string]any](host.Name)),
	)
	if err != nil {
		return MessageCatalog{}, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return MessageCatalog{}, err
	}
	return catalogFromValues(merged.Value)
}

// ActorPlaceholder is rendered when no user name was resolved.
func (c MessageCatalog) ActorPlaceholder() string {
	if c.actor == "" {
		return defaultActorPlaceholder
	}
	return c.actor
}

// ActionPhrase returns the verb phrase for action, falling back to the phrase
// of the fallback action.
func (c MessageCatalog) ActionPhrase(action types.ActivityAction) string {
	if phrase, ok := c.actions[action]; ok && phrase != "" {
		return phrase
	}
	return defaultActionPhrase(action)
}

// EntityLabel returns the label for entityType, falling back to the label of
// the fallback entity type.
func (c MessageCatalog) EntityLabel(entityType types.EntityType) string {
	if label, ok := c.entities[entityType]; ok && label != "" {
		return label
	}
	return defaultEntityLabel(entityType)
}

func (c MessageCatalog) empty() bool {
	return c.actor == "" && len(c.actions) == 0 && len(c.entities) == 0
}

const defaultActorPlaceholder = "Usuário"

func defaultActionPhrase(action types.ActivityAction) string {
	switch action {
	case types.ActionProjectCreated, types.ActionWorkspaceCreated, types.ActionSubscriptionCreated:
		return "criou"
	case types.ActionProjectUpdated, types.ActionWorkspaceUpdated:
		return "atualizou"
	case types.ActionProjectDeleted:
		return "excluiu"
	case types.ActionMemberInvited:
		return "convidou"
	case types.ActionMemberJoined:
		return "adicionou"
	case types.ActionMemberRemoved:
		return "removeu"
	case types.ActionMemberRoleChanged:
		return "alterou a função de"
	case types.ActionFeatureEnabled:
		return "ativou"
	case types.ActionFeatureDisabled:
		return "desativou"
	case types.ActionSubscriptionUpdated:
		return "alterou"
	case types.ActionSubscriptionCancelled:
		return "cancelou"
	case types.ActionWalletCredited:
		return "creditou"
	case types.ActionWalletDebited:
		return "debitou"
	case types.ActionOnboardingCompleted:
		return "concluiu a configuração de"
	case types.ActionSettingsUpdated:
		return "atualizou"
	default:
		return defaultActionPhrase(types.FallbackActivityAction)
	}
}

func defaultEntityLabel(entityType types.EntityType) string {
	switch entityType {
	case types.EntityProject:
		return "o projeto"
	case types.EntityMember:
		return "o membro"
	case types.EntitySettings:
		return "as configurações"
	case types.EntitySubscription:
		return "a assinatura"
	case types.EntityWallet:
		return "a carteira"
	case types.EntityFeature:
		return "o recurso"
	case types.EntityInvitation:
		return "o convite"
	case types.EntityWorkspace:
		return "o workspace"
	default:
		return defaultEntityLabel(types.FallbackEntityType)
	}
}

func defaultCatalogValues() map[string]any {
	values := map[string]any{catalogKeyActor: defaultActorPlaceholder}
	for _, action := range types.AllActivityActions() {
		values[catalogKeyActionPrefix+string(action)] = defaultActionPhrase(action)
	}
	for _, entityType := range types.AllEntityTypes() {
		values[catalogKeyEntityPrefix+string(entityType)] = defaultEntityLabel(entityType)
	}
	return values
}

func overrideValues(overrides CatalogOverrides) map[string]any {
	values := make(map[string]any)
	if actor := strings.TrimSpace(overrides.ActorPlaceholder); actor != "" {
		values[catalogKeyActor] = actor
	}
	for action, phrase := range overrides.Actions {
		phrase = strings.TrimSpace(phrase)
		if !action.Valid() || phrase == "" {
			continue
		}
		values[catalogKeyActionPrefix+string(action)] = phrase
	}
	for entityType, label := range overrides.Entities {
		label = strings.TrimSpace(label)
		if !entityType.Valid() || label == "" {
			continue
		}
		values[catalogKeyEntityPrefix+string(entityType)] = label
	}
	return values
}

func catalogFromValues(values map[string]any) (MessageCatalog, error) {
	catalog := MessageCatalog{
		actions:  make(map[types.ActivityAction]string),
		entities: make(map[types.EntityType]string),
	}
	for key, raw := range values {
		value, ok := raw.(string)
		if !ok {
			return MessageCatalog{}, fmt.Errorf("activity: catalog value for %q must be a string", key)
		}
		switch {
		case key == catalogKeyActor:
			catalog.actor = value
		case strings.HasPrefix(key, catalogKeyActionPrefix):
			catalog.actions[types.ActivityAction(strings.TrimPrefix(key, catalogKeyActionPrefix))] = value
		case strings.HasPrefix(key, catalogKeyEntityPrefix):
			catalog.entities[types.EntityType(strings.TrimPrefix(key, catalogKeyEntityPrefix))] = value
		}
	}
	return catalog, nil
}
