package mcp

import "github.com/mark3labs/mcp-go/mcp"

var addToolDef = mcp.NewTool("acronym_add",
	mcp.WithDescription("Register a new acronym. The pattern defaults to the word-bounded key and must compile."),
	mcp.WithString("key", mcp.Required(), mcp.Description("Acronym token, e.g. MSRV")),
	mcp.WithString("expansion", mcp.Required(), mcp.Description("What the acronym stands for")),
	mcp.WithString("pattern", mcp.Description("Optional Go regular expression used to detect the acronym")),
)

var editToolDef = mcp.NewTool("acronym_edit",
	mcp.WithDescription("Change the key, pattern or expansion of an acronym. At least one field is required."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Acronym id")),
	mcp.WithString("key", mcp.Description("New key")),
	mcp.WithString("pattern", mcp.Description("New pattern; empty resets to the default for the key")),
	mcp.WithString("expansion", mcp.Description("New expansion")),
)

var removeToolDef = mcp.NewTool("acronym_remove",
	mcp.WithDescription("Remove an acronym and every recorded occurrence of it."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Acronym id")),
)

var listToolDef = mcp.NewTool("acronym_list",
	mcp.WithDescription("List the vocabulary in slot order."),
)

var exportToolDef = mcp.NewTool("acronym_export",
	mcp.WithDescription("Write the vocabulary to a JSONL file."),
	mcp.WithString("path", mcp.Description("Destination .jsonl path; defaults to the exports directory")),
	mcp.WithString("label", mcp.Description("File name prefix for the default path")),
)

var importToolDef = mcp.NewTool("acronym_import",
	mcp.WithDescription("Merge a JSONL vocabulary export, matching on key."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path")),
	mcp.WithString("mode", mcp.Description("Collision mode"), mcp.Enum("error", "skip", "replace")),
)

var expandToolDef = mcp.NewTool("thread_expand",
	mcp.WithDescription("List the distinct acronyms recorded for a thread, sorted by key."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread id, with or without the t3_ prefix")),
	mcp.WithBoolean("markdown", mcp.Description("Also return the listing as a markdown reply body")),
)

var threadsToolDef = mcp.NewTool("thread_list",
	mcp.WithDescription("List threads with recorded acronyms, most recently active first."),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Page offset")),
)

var candidatesToolDef = mcp.NewTool("scan_candidates",
	mcp.WithDescription("Fetch recent comments and list acronym-shaped tokens for review."),
	mcp.WithBoolean("unregistered", mcp.Description("Drop tokens that are already vocabulary keys")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of candidates to return")),
	mcp.WithNumber("fetch", mcp.Description("Number of comments to read (default from config)")),
)

var scanToolDef = mcp.NewTool("scan_run",
	mcp.WithDescription("Fetch recent comments, detect known acronyms and record each occurrence once."),
	mcp.WithBoolean("dry_run", mcp.Description("Report without recording")),
	mcp.WithNumber("fetch", mcp.Description("Number of comments to read (default from config)")),
)
