package main

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/sanctionco/thunder-contract-tests/client"
	"github.com/sanctionco/thunder-contract-tests/dynamo"
	"github.com/sanctionco/thunder-contract-tests/framework"

	"github.com/spf13/cobra"
)

// commandParams are the flags shared by every command.
type commandParams struct {
	endpoint      string
	adminEndpoint string
	auth          string
	verbose       bool
	timeout       time.Duration
}

func (p *commandParams) addFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.StringVarP(&p.endpoint, "endpoint", "e", client.DefaultEndpoint, "base URL of the service")
	fs.StringVar(&p.adminEndpoint, "admin-endpoint", client.DefaultAdminEndpoint, "base URL of the service's admin endpoint")
	fs.StringVarP(&p.auth, "auth", "a", client.DefaultApplication+":"+client.DefaultSecret, "basic authentication credentials as application:secret")
	fs.BoolVarP(&p.verbose, "verbose", "v", false, "show output for successful steps as well as failed ones")
	fs.DurationVar(&p.timeout, "timeout", 0, "timeout for each HTTP request (0 means none)")
}

func (p *commandParams) clientConfig() (client.Config, error) {
	application, secret, ok := strings.Cut(p.auth, ":")
	if !ok || application == "" {
		return client.Config{}, fmt.Errorf("--auth must be in the form application:secret")
	}
	return client.Config{
		Endpoint:      p.endpoint,
		AdminEndpoint: p.adminEndpoint,
		Application:   application,
		Secret:        secret,
		Timeout:       p.timeout,
	}, nil
}

// runParams are the flags of the run command.
type runParams struct {
	docker         bool
	localDeps      bool
	metrics        bool
	tableName      string
	dynamoEndpoint string
	region         string
	noBootstrap    bool
	awaitService   time.Duration
	filters        framework.RegexFilters
	configPath     string
}

func (p *runParams) addFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVarP(&p.docker, "docker", "d", false, "test against a Docker container with Docker-in-Docker")
	fs.BoolVarP(&p.localDeps, "local-dependencies", "l", false, "start local dependencies before running tests")
	fs.BoolVar(&p.metrics, "metrics", true, "run metrics introspection steps")
	fs.StringVar(&p.tableName, "table", dynamo.DefaultTableName, "name of the DynamoDB table to create")
	fs.StringVar(&p.dynamoEndpoint, "dynamo-endpoint", "", "DynamoDB endpoint (default depends on --docker)")
	fs.StringVar(&p.region, "region", dynamo.DefaultRegion, "DynamoDB region")
	fs.BoolVar(&p.noBootstrap, "no-bootstrap", false, "do not create the DynamoDB table before running")
	fs.DurationVar(&p.awaitService, "await-service", 0, "wait up to this long for the service to respond before running")
	fs.Var(&p.filters.MustMatch, "run", "regex pattern(s) to select steps to run")
	fs.Var(&p.filters.MustNotMatch, "skip", "regex pattern(s) to select steps not to run")
	fs.StringVar(&p.configPath, "config", "", "YAML file describing local dependency commands")
}

func (p *runParams) dynamoConfig() dynamo.Config {
	endpoint := p.dynamoEndpoint
	if endpoint == "" {
		endpoint = dynamo.DefaultEndpoint(p.docker)
	}
	return dynamo.Config{
		Endpoint:  endpoint,
		Region:    p.region,
		TableName: p.tableName,
	}
}

// hashPassword applies the client-side MD5 hashing that older deployments expect.
func hashPassword(password string, enabled bool) string {
	if !enabled {
		return password
	}
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}
