//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package action

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// usdPrinter localizes amounts with en-US digit grouping.
var usdPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders an amount the way reports and the CLI show money,
// e.g. $12,557.51.
func FormatUSD(amount float64) string {
	return usdPrinter.Sprintf("$%.2f", amount)
}
