package validators

import "go.mongodb.org/mongo-driver/bson"

var TruckValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"number_plate",
			"fuel_type",
			"owner_id",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"number_plate": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 20,
			},

			"fuel_type": bson.M{
				"enum": []string{"diesel", "electric", "LNG"},
			},

			"avg_fuel_burn_rate": bson.M{
				"bsonType": []string{"double", "int"},
				"minimum":  0,
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
