package validators

import "go.mongodb.org/mongo-driver/bson"

var VesselValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"vessel_name",
			"arrival_time",
			"berth",
			"delay_risk_score",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"vessel_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"arrival_time": bson.M{
				"bsonType": "date",
			},

			"berth": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 20,
			},

			"delay_risk_score": bson.M{
				"bsonType": []string{"double", "int"},
				"minimum":  0,
				"maximum":  100,
			},

			"status": bson.M{
				"enum": []string{"scheduled", "delayed", "docked"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
