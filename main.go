package main

import "aqi-map-backend/cmd"

func main() {
	cmd.Run()
}
