package model

import (
	"context"
	"encoding/json"
)

// Entity names a CRM record type.
type Entity string

const (
	EntityUser            Entity = "user"
	EntityProduct         Entity = "product"
	EntityProductCategory Entity = "product_category"
	EntityActivityType    Entity = "activity_type"
	EntityPipeline        Entity = "pipeline"
	EntityContact         Entity = "contact"
	EntityDeal            Entity = "deal"
	EntityCompany         Entity = "company"
	EntityCase            Entity = "case"
	EntityAttachment      Entity = "attachment"
	EntityCard            Entity = "card"
)

// CRMDataSource is the read side of the CRM used by agent tools.
// Every call returns the CRM payload untouched as JSON.
type CRMDataSource interface {
	List(ctx context.Context, entity Entity) (json.RawMessage, error)
	Search(ctx context.Context, entity Entity, query string) (json.RawMessage, error)
	Detail(ctx context.Context, entity Entity, id string) (json.RawMessage, error)
	Cards(ctx context.Context, ownerID string) (json.RawMessage, error)
}
