package store

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Keys is the full key set written with an item: the table's primary key
// pair plus up to four secondary index projections. Every index pair must be
// populated both-or-neither; a half-written pair would leave the item
// invisible to that index with no repair path, so Validate runs before every
// write.
type Keys struct {
	PK string
	SK string

	GSI1PK string
	GSI1SK string
	GSI2PK string
	GSI2SK string
	GSI3PK string
	GSI3SK string
	GSI4PK string
	GSI4SK string
}

// Entity is anything the store can persist. Keys must return an error when
// the entity cannot produce a complete key set (missing id, status, slug).
type Entity interface {
	Keys() (Keys, error)
}

var errMissingPrimary = errors.New("store: primary key pair is incomplete")

func (k Keys) Validate() error {
	if k.PK == "" || k.SK == "" {
		return errMissingPrimary
	}
	pairs := [][2]string{
		{k.GSI1PK, k.GSI1SK},
		{k.GSI2PK, k.GSI2SK},
		{k.GSI3PK, k.GSI3SK},
		{k.GSI4PK, k.GSI4SK},
	}
	for i, p := range pairs {
		if (p[0] == "") != (p[1] == "") {
			return fmt.Errorf("store: GSI%d key pair is half populated (pk=%q sk=%q)", i+1, p[0], p[1])
		}
	}
	return nil
}

func (k Keys) attributes() map[string]types.AttributeValue {
	attrs := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: k.PK},
		"SK": &types.AttributeValueMemberS{Value: k.SK},
	}
	set := func(name, v string) {
		if v != "" {
			attrs[name] = &types.AttributeValueMemberS{Value: v}
		}
	}
	set("GSI1PK", k.GSI1PK)
	set("GSI1SK", k.GSI1SK)
	set("GSI2PK", k.GSI2PK)
	set("GSI2SK", k.GSI2SK)
	set("GSI3PK", k.GSI3PK)
	set("GSI3SK", k.GSI3SK)
	set("GSI4PK", k.GSI4PK)
	set("GSI4SK", k.GSI4SK)
	return attrs
}
