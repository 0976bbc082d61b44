package mcp

import "github.com/mark3labs/mcp-go/mcp"

func scanTool() mcp.Tool {
	return mcp.NewTool("scan",
		mcp.WithDescription("Scan the selected frames and report which connected library every component instance, style and variable belongs to"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func swapTool() mcp.Tool {
	return mcp.NewTool("swap",
		mcp.WithDescription("Swap component instances and style or variable bindings in the scanned frames from one library to another. Component names accept glob patterns such as \"Button/*\""),
		mcp.WithString("source_library", mcp.Required(), mcp.Description("Library the assets come from")),
		mcp.WithString("target_library", mcp.Required(), mcp.Description("Library to swap to")),
		mcp.WithArray("components", mcp.Description("Component names from the scan"), mcp.WithStringItems()),
		mcp.WithArray("styles", mcp.Description("Style or variable names from the scan"), mcp.WithStringItems()),
		mcp.WithBoolean("preserve_style_overrides", mcp.Description("Keep fill and stroke style overrides on swapped instances")),
	)
}

func listLibrariesTool() mcp.Tool {
	return mcp.NewTool("list_libraries",
		mcp.WithDescription("List the connected libraries"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func syncCurrentFileTool() mcp.Tool {
	return mcp.NewTool("sync_current_file",
		mcp.WithDescription("Register or refresh the open document as a Local library"),
	)
}

func fileStatusTool() mcp.Tool {
	return mcp.NewTool("file_status",
		mcp.WithDescription("Report whether the open document is registered as a library"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func addLibraryTool() mcp.Tool {
	return mcp.NewTool("add_library",
		mcp.WithDescription("Connect a published library by reference"),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Library reference")),
	)
}

func removeLibraryTool() mcp.Tool {
	return mcp.NewTool("remove_library",
		mcp.WithDescription("Disconnect a library"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Library id")),
	)
}

func refreshLibraryTool() mcp.Tool {
	return mcp.NewTool("refresh_library",
		mcp.WithDescription("Refresh a connected library's asset tables"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Library id")),
	)
}

func getComponentPropertiesTool() mcp.Tool {
	return mcp.NewTool("get_component_properties",
		mcp.WithDescription("Describe the properties of a source instance and a target component, for building a property mapping"),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Instance or component node id")),
		mcp.WithString("target_key", mcp.Required(), mcp.Description("Target component or component set key")),
		mcp.WithString("target_name", mcp.Description("Target display name")),
		mcp.WithString("source_library", mcp.Description("Source library name")),
		mcp.WithString("target_library", mcp.Description("Target library name")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func getTargetColorTool() mcp.Tool {
	return mcp.NewTool("get_target_color",
		mcp.WithDescription("Preview the colour a style or variable name resolves to in the target library"),
		mcp.WithString("style_name", mcp.Required(), mcp.Description("Style or variable name")),
		mcp.WithString("target_library", mcp.Required(), mcp.Description("Target library name")),
		mcp.WithString("token_id", mcp.Description("Echoed back in the result")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}
