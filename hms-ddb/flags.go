package hmsddb

import (
	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	"github.com/urfave/cli/v2"
)

var DDBOpts struct {
	DAXCluster string
	Endpoint   string
	Region     string
	TableName  string
}

var DAXClusterFlag = hmscli.StringFlag("dax-cluster", "The DAX cluster to connect to", &DDBOpts.DAXCluster)
var EndpointFlag = hmscli.StringFlag("dynamodb-endpoint", "Override the DynamoDB endpoint, e.g. http://localhost:8000", &DDBOpts.Endpoint)
var RegionFlag = hmscli.StringFlag("aws-region", "AWS region for DynamoDB and DAX", &DDBOpts.Region, "us-east-2")
var TableNameFlag = hmscli.StringFlag("table-name", "Override the chat message table name", &DDBOpts.TableName)

var DDBFlags = []cli.Flag{
	DAXClusterFlag,
	EndpointFlag,
	RegionFlag,
	TableNameFlag,
}
