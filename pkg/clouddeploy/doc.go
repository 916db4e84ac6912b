// Package clouddeploy provides the types, interfaces, and helpers for
// working with the Cloud Deploy API.
//
// # Overview
//
// The clouddeploy package defines the domain types (App, Deployment, Job)
// and the interfaces for resource-oriented clients (AppsClient, JobsClient,
// DeploymentsClient). A concrete implementation is provided by the cdclient
// package, which wires configuration, transport, authentication, and job
// polling. Most consumers should import cdclient to construct a client and
// then interact with the interfaces exposed here.
//
// Getting a client:
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/stackforge-io/clouddeploy-client/pkg/cdclient"
//	  "github.com/stackforge-io/clouddeploy-client/pkg/clouddeploy"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := cdclient.New(&clouddeploy.Config{
//	    Endpoint: "https://deploy.example.com",
//	    Username: "deployer",
//	    Password: "secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  apps, err := cli.Apps().List(ctx, clouddeploy.NewQueryParams().WithPerPage(50))
//	  if err != nil { log.Fatal(err) }
//	  _ = apps
//	}
//
// # Jobs
//
// Operations that start asynchronous work (deployments, image builds, ...)
// return a *Job handle immediately. Waiting is explicit:
//
//	job, err := cli.Jobs().Deploy(ctx, appID, modules, nil)
//	if err != nil { log.Fatal(err) }
//
//	job, err = cli.Jobs().PollUntilComplete(ctx, job.ID, nil)
//	if errors.Is(err, clouddeploy.ErrJobFailed) {
//	  // job.Error carries the service-reported detail verbatim
//	}
//
// # Pagination
//
// List returns one page; Iterate returns a lazy PageIterator that issues
// follow-up requests on demand:
//
//	it := cli.Apps().Iterate(ctx, clouddeploy.NewQueryParams().WithFilter("env", "prod"))
//	for it.HasNext() {
//	  app, err := it.Next()
//	  ...
//	}
package clouddeploy
