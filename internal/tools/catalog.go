package tools

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool names, in catalog order.
const (
	CreateAccount     = "createAccount"
	CompileContract   = "compileContract"
	DeployContract    = "deployContract"
	ExecuteContract   = "executeContract"
	GetTransaction    = "getTransaction"
	PostTransaction   = "postTransaction"
	UpdateTransaction = "updateTransaction"
	Get               = "get"
	Set               = "set"
	GetContractState  = "getContractState"
)

// Catalog returns the fixed tool catalog. Each call builds fresh values so
// callers cannot alter the definitions other callers see.
func Catalog() []Definition {
	return []Definition{
		{
			Name:        CreateAccount,
			Description: "Create a new account in ResilientDB. Returns account ID and public key.",
			InputSchema: object(nil, map[string]*jsonschema.Schema{
				"accountId": str("Optional account ID. If not provided, server will generate one."),
			}),
		},
		{
			Name:        CompileContract,
			Description: "Compile a smart contract using ResContract CLI.",
			InputSchema: object([]string{"contractPath"}, map[string]*jsonschema.Schema{
				"contractPath": str("Path to the contract file to compile."),
				"outputDir":    str("Optional output directory for compiled contract."),
			}),
		},
		{
			Name:        DeployContract,
			Description: "Deploy a compiled smart contract to ResilientDB blockchain.",
			InputSchema: object([]string{"contractPath"}, map[string]*jsonschema.Schema{
				"contractPath":    str("Path to the compiled contract file."),
				"accountId":       str("Optional account ID for deployment."),
				"constructorArgs": strArray("Optional constructor arguments for the contract."),
			}),
		},
		{
			Name:        ExecuteContract,
			Description: "Execute a method on a deployed smart contract. Use 'call' for read operations, 'send' for write operations.",
			InputSchema: object([]string{"contractAddress", "methodName"}, map[string]*jsonschema.Schema{
				"contractAddress": str("Address of the deployed contract."),
				"methodName":      str("Name of the method to execute."),
				"methodArgs":      strArray("Optional arguments for the method."),
				"accountId":       str("Optional account ID for execution."),
				"transactionType": {
					Type:        "string",
					Enum:        []any{"call", "send"},
					Default:     json.RawMessage(`"call"`),
					Description: "Transaction type: 'call' for read operations, 'send' for write operations.",
				},
			}),
		},
		{
			Name:        GetTransaction,
			Description: "Get transaction details by transaction ID. Uses GraphQL for queries, falling back to ResContract CLI.",
			InputSchema: object([]string{"transactionId"}, map[string]*jsonschema.Schema{
				"transactionId": str("Transaction ID to retrieve."),
			}),
		},
		{
			Name:        PostTransaction,
			Description: "Post a new transaction to ResilientDB using GraphQL. Data must include operation, amount, signerPublicKey, signerPrivateKey, recipientPublicKey and asset.",
			InputSchema: object([]string{"data"}, map[string]*jsonschema.Schema{
				"data": {Type: "object", Description: "Transaction data as key-value pairs."},
			}),
		},
		{
			Name:        UpdateTransaction,
			Description: "Update an existing transaction using GraphQL.",
			InputSchema: object([]string{"transactionId", "data"}, map[string]*jsonschema.Schema{
				"transactionId": str("Transaction ID to update."),
				"data":          {Type: "object", Description: "Updated transaction data."},
			}),
		},
		{
			Name:        Get,
			Description: "Retrieves a value from ResilientDB by key.",
			InputSchema: object([]string{"key"}, map[string]*jsonschema.Schema{
				"key": str("Key to retrieve."),
			}),
		},
		{
			Name:        Set,
			Description: "Stores a key-value pair in ResilientDB. Non-string values are stored as JSON text.",
			InputSchema: object([]string{"key", "value"}, map[string]*jsonschema.Schema{
				"key":   str("Key to store the value under."),
				"value": {Description: "Value to store (can be any JSON-serializable value)."},
			}),
		},
		{
			Name:        GetContractState,
			Description: "Get the current state of a deployed smart contract.",
			InputSchema: object([]string{"contractAddress"}, map[string]*jsonschema.Schema{
				"contractAddress": str("Address of the deployed contract."),
			}),
		},
	}
}

func object(required []string, properties map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: properties, Required: required}
}

func str(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func strArray(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: description}
}
