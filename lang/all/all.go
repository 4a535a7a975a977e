// Package all registers every supported language in the default registry.
// Import for side effects:
//
//	import _ "github.com/c360studio/semtrim/lang/all"
package all

import (
	_ "github.com/c360studio/semtrim/lang/csharp"
	_ "github.com/c360studio/semtrim/lang/golang"
	_ "github.com/c360studio/semtrim/lang/java"
	_ "github.com/c360studio/semtrim/lang/javascript"
	_ "github.com/c360studio/semtrim/lang/kotlin"
	_ "github.com/c360studio/semtrim/lang/php"
	_ "github.com/c360studio/semtrim/lang/python"
	_ "github.com/c360studio/semtrim/lang/ruby"
	_ "github.com/c360studio/semtrim/lang/rust"
	_ "github.com/c360studio/semtrim/lang/typescript"
)
