package models

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MissingSuffixFilter matches documents whose field does not contain suffix,
// case-insensitively. The suffix is quoted so user input cannot inject
// regex syntax.
func MissingSuffixFilter(field, suffix string) bson.D {
	return bson.D{{Key: field, Value: bson.D{{Key: "$not", Value: primitive.Regex{
		Pattern: regexp.QuoteMeta(suffix),
		Options: "i",
	}}}}}
}

// AppendSuffixUpdate appends " "+suffix to the field. It is an aggregation
// pipeline update, so the new value is computed from the old one server-side
// in a single UpdateMany.
func AppendSuffixUpdate(field, suffix string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: field, Value: bson.D{{Key: "$concat", Value: bson.A{"$" + field, " " + suffix}}}},
		}}},
	}
}
