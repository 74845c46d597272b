// Package all registers every adapter via side-effect imports.
// Importing it once from the binary makes the full set available
// through the registry.
package all

import (
	_ "github.com/MinorTermite/prizmbet-v2/internal/parser/adapters/apifootball"
	_ "github.com/MinorTermite/prizmbet-v2/internal/parser/adapters/leon"
	_ "github.com/MinorTermite/prizmbet-v2/internal/parser/adapters/marathon"
	_ "github.com/MinorTermite/prizmbet-v2/internal/parser/adapters/oddsapi"
	_ "github.com/MinorTermite/prizmbet-v2/internal/parser/adapters/oddsio"
	_ "github.com/MinorTermite/prizmbet-v2/internal/parser/adapters/pinnacle"
	_ "github.com/MinorTermite/prizmbet-v2/internal/parser/adapters/winline"
	_ "github.com/MinorTermite/prizmbet-v2/internal/parser/adapters/xbet"
)
