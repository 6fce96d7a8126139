package join

import "go.uber.org/zap"

func zapRows(n uint64) zap.Field  { return zap.Uint64("rows", n) }
func zapBytes(n uint64) zap.Field { return zap.Uint64("bytes", n) }
func zapLimit(n uint64) zap.Field { return zap.Uint64("limit", n) }
