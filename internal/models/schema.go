// internal/models/schema.go
package models

// ClientFeaturesSchema constrains types and enumerations of a client feature
// payload. It does not list required columns; absent columns are reported by
// the engine against the loaded model's own column list.
const ClientFeaturesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "yesNo": {"type": "string", "enum": ["Yes", "No"]},
    "internetAddon": {"type": "string", "enum": ["Yes", "No", "No internet service"]},
    "flag": {
      "anyOf": [
        {"type": "integer", "enum": [0, 1]},
        {"type": "string", "pattern": "^\\s*[01]\\s*$"}
      ]
    },
    "count": {
      "anyOf": [
        {"type": "integer", "minimum": 0},
        {"type": "string", "pattern": "^\\s*[0-9]+\\s*$"}
      ]
    },
    "amount": {
      "anyOf": [
        {"type": "number", "minimum": 0},
        {"type": "string", "pattern": "^\\s*[0-9]+(\\.[0-9]+)?\\s*$"}
      ]
    }
  },
  "properties": {
    "gender": {"type": "string", "enum": ["Male", "Female"]},
    "SeniorCitizen": {"$ref": "#/definitions/flag"},
    "Partner": {"$ref": "#/definitions/yesNo"},
    "Dependents": {"$ref": "#/definitions/yesNo"},
    "tenure": {"$ref": "#/definitions/count"},
    "PhoneService": {"$ref": "#/definitions/yesNo"},
    "MultipleLines": {"type": "string", "enum": ["Yes", "No", "No phone service"]},
    "InternetService": {"type": "string", "enum": ["DSL", "Fiber optic", "No"]},
    "OnlineSecurity": {"$ref": "#/definitions/internetAddon"},
    "OnlineBackup": {"$ref": "#/definitions/internetAddon"},
    "DeviceProtection": {"$ref": "#/definitions/internetAddon"},
    "TechSupport": {"$ref": "#/definitions/internetAddon"},
    "StreamingTV": {"$ref": "#/definitions/internetAddon"},
    "StreamingMovies": {"$ref": "#/definitions/internetAddon"},
    "Contract": {"type": "string", "enum": ["Month-to-month", "One year", "Two year"]},
    "PaperlessBilling": {"$ref": "#/definitions/yesNo"},
    "PaymentMethod": {
      "type": "string",
      "enum": ["Electronic check", "Mailed check", "Bank transfer (automatic)", "Credit card (automatic)"]
    },
    "MonthlyCharges": {"$ref": "#/definitions/amount"},
    "TotalCharges": {"$ref": "#/definitions/amount"}
  }
}`
