package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/sanctionco/thunder-contract-tests/client"
	"github.com/sanctionco/thunder-contract-tests/framework"
	"github.com/sanctionco/thunder-contract-tests/servicedef"
	"github.com/sanctionco/thunder-contract-tests/testcases"

	"github.com/spf13/cobra"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

type userCommandParams struct {
	filename string
	md5      bool
	html     bool
}

var userParams userCommandParams

// userOperation performs one call against the service and returns the status that counts
// as success.
type userOperation func(ctx context.Context, c *client.ThunderClient, args []string) (client.Response, int, error)

func addUserCommands(root *cobra.Command) {
	create := userCommand("create", "Create a user from a details file", cobra.NoArgs,
		func(ctx context.Context, c *client.ThunderClient, args []string) (client.Response, int, error) {
			user, err := readUserFile(userParams.filename)
			if err != nil {
				return client.Response{}, 0, err
			}
			fmt.Println("Creating user...")
			resp, err := c.CreateUser(ctx, user)
			return resp, http.StatusCreated, err
		})
	create.Flags().StringVarP(&userParams.filename, "filename", "f", "", "JSON or YAML file containing user details")
	_ = create.MarkFlagRequired("filename")

	get := userCommand("get <email> <password>", "Get a user", cobra.ExactArgs(2),
		func(ctx context.Context, c *client.ThunderClient, args []string) (client.Response, int, error) {
			fmt.Printf("Getting user %s...\n", args[0])
			resp, err := c.GetUser(ctx, args[0], hashPassword(args[1], userParams.md5))
			return resp, http.StatusOK, err
		})

	update := userCommand("update <email> <password>", "Update a user from a details file", cobra.ExactArgs(2),
		func(ctx context.Context, c *client.ThunderClient, args []string) (client.Response, int, error) {
			user, err := readUserFile(userParams.filename)
			if err != nil {
				return client.Response{}, 0, err
			}
			fmt.Printf("Updating user %s...\n", args[0])
			resp, err := c.UpdateUser(ctx, args[0], hashPassword(args[1], userParams.md5), user)
			return resp, http.StatusOK, err
		})
	update.Flags().StringVarP(&userParams.filename, "filename", "f", "", "JSON or YAML file containing user details")
	_ = update.MarkFlagRequired("filename")

	del := userCommand("delete <email> <password>", "Delete a user", cobra.ExactArgs(2),
		func(ctx context.Context, c *client.ThunderClient, args []string) (client.Response, int, error) {
			fmt.Printf("Deleting user %s...\n", args[0])
			resp, err := c.DeleteUser(ctx, args[0], hashPassword(args[1], userParams.md5))
			return resp, http.StatusOK, err
		})

	email := userCommand("email <email> <password>", "Send a verification email to a user", cobra.ExactArgs(2),
		func(ctx context.Context, c *client.ThunderClient, args []string) (client.Response, int, error) {
			fmt.Printf("Sending verification email to %s...\n", args[0])
			resp, err := c.SendVerificationEmail(ctx, args[0], hashPassword(args[1], userParams.md5))
			return resp, http.StatusOK, err
		})

	verify := userCommand("verify <email> <token>", "Verify a user's email address", cobra.ExactArgs(2),
		func(ctx context.Context, c *client.ThunderClient, args []string) (client.Response, int, error) {
			responseType := servicedef.ResponseTypeJSON
			if userParams.html {
				responseType = servicedef.ResponseTypeHTML
			}
			fmt.Printf("Verifying user %s...\n", args[0])
			resp, err := c.VerifyUser(ctx, args[0], args[1], responseType)
			return resp, http.StatusOK, err
		})
	verify.Flags().BoolVar(&userParams.html, "html", false, "request the HTML success page")

	reset := userCommand("reset <email> <password>", "Reset a user's verification status", cobra.ExactArgs(2),
		func(ctx context.Context, c *client.ThunderClient, args []string) (client.Response, int, error) {
			fmt.Printf("Resetting verification status of %s...\n", args[0])
			resp, err := c.ResetVerificationStatus(ctx, args[0], hashPassword(args[1], userParams.md5))
			return resp, http.StatusOK, err
		})

	for _, cmd := range []*cobra.Command{create, get, update, del, email, verify, reset} {
		cmd.Flags().BoolVar(&userParams.md5, "md5", false, "hash the password with MD5 before sending it")
		root.AddCommand(cmd)
	}
}

func userCommand(use, short string, args cobra.PositionalArgs, op userOperation) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientConfig, err := params.clientConfig()
			if err != nil {
				return err
			}
			logger := framework.NullLogger()
			if params.verbose {
				logger = log.New(os.Stdout, "", 0)
			}
			c := client.NewThunderClient(clientConfig, logger)
			resp, expected, err := op(cmd.Context(), c, args)
			if err != nil {
				return err
			}
			fmt.Printf("Status: %d\n%s\n", resp.StatusCode, resp.Body)
			if resp.StatusCode != expected {
				return fmt.Errorf("unexpected status %d, expected %d", resp.StatusCode, expected)
			}
			return nil
		},
	}
}

func readUserFile(path string) (ldvalue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ldvalue.Null(), fmt.Errorf("can't read user details: %w", err)
	}
	user, err := testcases.ParseValue(data)
	if err != nil {
		return ldvalue.Null(), fmt.Errorf("%s: %w", path, err)
	}
	if !servicedef.UserFromValue(user).IsObject() {
		return ldvalue.Null(), fmt.Errorf("%s does not contain a user object", path)
	}
	return user, nil
}
