package main

import (
	"context"
	"fmt"
	"os"

	"github.com/eatwhat/eatwhat-api/internal/app"
)

// @title           eatwhat API
// @version         1.0
// @description     Group lunch decisions: open a session, collect restaurant suggestions, pick one at random.
// @BasePath        /api
//
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the JWT.
func main() {
	if err := app.Run(context.Background(), os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "eatwhat:", err)
		os.Exit(1)
	}
}
