// Package testutil provides document builders for tests.
//
//	doc := testutil.Doc(
//		testutil.Node("root", "div").
//			Text(testutil.Param("title")).
//			Children(testutil.Node("save", "button").On("click", "save", nil)),
//		testutil.WithParam("title", "string", "Untitled"),
//	)
package testutil
