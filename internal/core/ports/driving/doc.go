// Package driving defines interfaces that external actors (the CLI commands
// Git invokes) use to interact with core services. These are the "driving"
// ports in hexagonal architecture terminology - they drive the application.
package driving
