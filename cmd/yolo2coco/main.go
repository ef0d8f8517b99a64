package main

import "github.com/MeKo-Tech/yolo2coco/cmd/yolo2coco/cmd"

func main() {
	cmd.Execute()
}
