package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("event_submissions")

		// organizers only see their own attempts; writes go through the service
		collection.ListRule = types.Pointer("owner_id = @request.auth.id")
		collection.ViewRule = types.Pointer("owner_id = @request.auth.id")

		collection.Fields.Add(
			&core.TextField{Name: "draft_id", Required: true, Max: 64},
			&core.TextField{Name: "owner_id", Required: true, Max: 64},
			&core.TextField{Name: "event_id", Max: 128},
			&core.TextField{Name: "title", Max: 255},
			&core.SelectField{
				Name:      "outcome",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"succeeded", "rejected", "failed"},
			},
			&core.TextField{Name: "message", Max: 2000},
			&core.DateField{Name: "submitted_at", Required: true},
			&core.AutodateField{Name: "created", OnCreate: true},
		)
		collection.AddIndex("idx_event_submissions_owner", false, "owner_id, submitted_at", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("event_submissions")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
