//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Command trpc-agent-composer runs the composer backend service.
package main

func main() {
	Execute()
}
