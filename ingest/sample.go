package ingest

import (
	"time"

	"github.com/acksell/assetsync/asset"
	"github.com/google/uuid"
)

// SampleObservations returns the demo sequence: assets A1 and B1 observed
// on 2023-03-01, then an older observation of B1 from 2023-02-01 that has
// to be discarded.
func SampleObservations() []Observation {
	march := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	a1 := uuid.MustParse("00000000-0000-0000-0000-0000000000A1")
	b1 := uuid.MustParse("00000000-0000-0000-0000-0000000000B1")

	return []Observation{
		{
			EventTime: march,
			Record: Record{
				AssetID:   a1,
				AssetName: "TEST000001",
				AccountID: 1,
				Properties: asset.Properties{
					"fleet":    asset.String("A"),
					"homebase": asset.String("A"),
					"udef_1":   asset.String("Aardvark"),
				},
			},
		},
		{
			EventTime: march,
			Record: Record{
				AssetID:   b1,
				AssetName: "TEST000002",
				AccountID: 2,
				Properties: asset.Properties{
					"fleet":           asset.String("B"),
					"homebase":        asset.String("B"),
					"udef_2":          asset.String("Butterfly"),
					"udef_CustomProp": asset.String("Custom"),
				},
			},
		},
		{
			EventTime: feb,
			Record: Record{
				AssetID:   b1,
				AssetName: "TEST000002",
				AccountID: 2,
				Properties: asset.Properties{
					"fleet":        asset.String("B"),
					"homebase":     asset.String("B"),
					"udef_OldProp": asset.String("Old"),
				},
			},
		},
	}
}
