package main

import "mealplanner/internal/app/server"

func main() {
	server.Run()
}
