// Package cdclient creates clients for the Cloud Deploy API.
//
// Quick start with a static token:
//
//	cli, err := cdclient.NewWithToken("https://deploy.example.com", token)
//
// Or with credentials exchanged for short-lived tokens:
//
//	cli, err := cdclient.NewWithPassword("https://deploy.example.com", user, pass)
//
// Full control via a config:
//
//	cli, err := cdclient.New(&clouddeploy.Config{
//	  Endpoint: "deploy.example.com",
//	  Username: user,
//	  Password: pass,
//	  Logger:   cdclient.NewZerologLogger(zerolog.New(os.Stderr)),
//	  Debug:    true,
//	})
//
// The returned client is safe for concurrent use.
package cdclient
