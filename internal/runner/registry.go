package runner

import (
	"github.com/upcschool/mongolab/internal/models"
	"github.com/upcschool/mongolab/internal/models/model1"
	"github.com/upcschool/mongolab/internal/models/model2"
	"github.com/upcschool/mongolab/internal/models/model3"
	labmongo "github.com/upcschool/mongolab/pkg/mongo"
)

// Models returns the three modeling strategies in comparison order.
func Models(client *labmongo.Client, batchSize int) []models.Model {
	return []models.Model{
		model1.New(client, batchSize),
		model2.New(client, batchSize),
		model3.New(client, batchSize),
	}
}
